// Package window implements the daily time-window gate.
//
// A Window is a pair of optional clock times. IsActive is pure and cheap; it
// is evaluated on every duty wake-up and its result is never cached. Windows
// whose start is later than their end wrap past midnight.
package window
