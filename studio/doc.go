// Package studio turns text prompts into stored thumbnail images.
//
// A generation request is validated, pays one credit up front through a
// conditional atomic debit, and is recorded before any model call so a crash
// leaves a discoverable generating record. Backends are arranged as an
// ordered fallback ladder with per-backend attempt budgets; the walk stops
// at the first success and is bounded by a hard wall-clock timeout. The
// produced image is written to object storage and the record completed with
// its public URL. If every backend fails, or the image cannot be stored, the
// record is marked failed and the credit refunded.
package studio
