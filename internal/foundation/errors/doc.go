// Package errors provides the classified error primitives used across rptl.
//
// Every collaborator failure that a duty is expected to survive is returned
// as a ClassifiedError carrying a category, a severity and a retry strategy.
// Duties use that classification to decide between "log and wait for the
// next tick" and "return and end the process":
//
//	err := errors.CaptureError("camera command failed").
//		WithCause(execErr).
//		WithContext("frame_id", ev.ID.String()).
//		Build()
//
// Unclassified errors are deliberately treated as fatal by the duties.
package errors
