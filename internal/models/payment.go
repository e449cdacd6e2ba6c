package models

import "strings"

// PaymentStatus is the settlement state of a fee line or installment.
type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "PAID"
	PaymentStatusPartial PaymentStatus = "PARTIAL"
	PaymentStatusUnpaid  PaymentStatus = "UNPAID"
)

// NormalizePaymentStatus upper-cases and trims a stored status.
func NormalizePaymentStatus(raw string) PaymentStatus {
	return PaymentStatus(strings.ToUpper(strings.TrimSpace(raw)))
}

// IsPaidOrPartial reports whether any payment has been made on an enrollment.
// Fee details take precedence: they count as paid when any line is paid or partial,
// or when not every line is unpaid. Without fee details, any paid installment counts.
func IsPaidOrPartial(feeDetails, installments []PaymentStatus) bool {
	if len(feeDetails) > 0 {
		allUnpaid := true
		for _, status := range feeDetails {
			switch status {
			case PaymentStatusPaid, PaymentStatusPartial:
				return true
			case PaymentStatusUnpaid:
			default:
				allUnpaid = false
			}
		}
		return !allUnpaid
	}
	for _, status := range installments {
		if status == PaymentStatusPaid {
			return true
		}
	}
	return false
}
