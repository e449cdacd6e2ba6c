package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPaidOrPartial(t *testing.T) {
	cases := []struct {
		name         string
		fees         []PaymentStatus
		installments []PaymentStatus
		want         bool
	}{
		{name: "no records", want: false},
		{name: "fee paid", fees: []PaymentStatus{PaymentStatusUnpaid, PaymentStatusPaid}, want: true},
		{name: "fee partial", fees: []PaymentStatus{PaymentStatusPartial}, want: true},
		{name: "fees all unpaid", fees: []PaymentStatus{PaymentStatusUnpaid, PaymentStatusUnpaid}, want: false},
		{name: "fee with unknown status", fees: []PaymentStatus{PaymentStatusUnpaid, "WAIVED"}, want: true},
		{name: "fees unpaid ignore installments", fees: []PaymentStatus{PaymentStatusUnpaid}, installments: []PaymentStatus{PaymentStatusPaid}, want: false},
		{name: "installment paid", installments: []PaymentStatus{PaymentStatusUnpaid, PaymentStatusPaid}, want: true},
		{name: "installment partial only", installments: []PaymentStatus{PaymentStatusPartial}, want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsPaidOrPartial(tc.fees, tc.installments))
		})
	}
}

func TestBatchHelpers(t *testing.T) {
	b := &Batch{
		MaxStudents: 2,
		Students:    []BatchStudent{{StudentID: "s1"}},
		WaitingList: []WaitingEntry{{StudentID: "s2", Status: WaitingStatusPending}},
	}
	assert.False(t, b.Full())
	assert.Equal(t, 1, b.Vacancies())
	assert.Equal(t, 0, b.StudentIndex("s1"))
	assert.Equal(t, -1, b.StudentIndex("s2"))
	assert.Equal(t, 0, b.PendingIndex("s2"))

	b.Students = append(b.Students, BatchStudent{StudentID: "s3"})
	assert.True(t, b.Full())
	assert.Equal(t, 0, b.Vacancies())
}

func TestActorIsAdmin(t *testing.T) {
	assert.True(t, Actor{Role: RoleAdmin}.IsAdmin())
	assert.True(t, Actor{Role: RoleSuperAdmin}.IsAdmin())
	assert.False(t, Actor{Role: RoleStaff}.IsAdmin())
	assert.False(t, Actor{}.IsAdmin())
}
