// Package diag defines the diagnostic model produced by the checking engine
// and consumed by formatters and the pass/fail classification.
//
// # Scope
//
// Package diag does not perform any formatting, IO or engine interaction.
// Rendering lives in internal/diagfmt; conversion from the engine's wire format
// lives in internal/doctor.
//
// # Data model
//
// Diagnostic is the central record. It contains:
//
//   - Category – the engine's four-level classification (Warning, Error,
//     Suggestion, Message). Numeric values match the engine so wire values map
//     one to one.
//   - Code – the engine's numeric diagnostic code, rendered as "TS<n>".
//   - Message – flattened human-readable text (chained messages joined by newlines).
//   - Position – optional source location. Line and Column are engine-native
//     (zero-based); formatters convert with Position.Human.
//   - Notes – optional related locations reported alongside the diagnostic.
//
// # Ordering
//
// Bag preserves insertion order. Producers append in the order the engine
// returns diagnostics and nothing in this module re-sorts them, so two runs
// over the same inputs render byte-identical output.
//
// A nil *Bag means "the engine produced no program to check". Every Bag
// method is nil-safe so callers can treat nil and empty alike.
package diag
