// Package errors provides custom error types for inventory operations.
package errors

import "errors"

var ErrMedicineNotFound = errors.New("medicine not found")
var ErrSupplierNotFound = errors.New("supplier not found")
var ErrPurchaseNotFound = errors.New("purchase not found")
var ErrSaleNotFound = errors.New("sale not found")

// ErrInsufficientStock is returned when applying a stock delta would drive
// the medicine's stock below zero. The stock is left unchanged.
var ErrInsufficientStock = errors.New("insufficient stock")

// ErrConcurrentModification is returned when a version-checked write was
// invalidated by a racing writer.
var ErrConcurrentModification = errors.New("concurrent modification: the record has been modified by another transaction")

var ErrSupplierInUse = errors.New("supplier has recorded purchases")
var ErrMedicineInUse = errors.New("medicine has recorded purchases or sales")
var ErrUnknownReason = errors.New("unknown stock adjustment reason")

var ErrTransactionBegin = errors.New("failed to begin transaction")
var ErrTransactionCommit = errors.New("failed to commit transaction")
var ErrTransactionRollback = errors.New("failed to rollback transaction")
