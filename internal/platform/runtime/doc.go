// Package runtime holds daemon runtime pieces that are independent of
// transport protocols: the replayable notification hub, the started/stopped
// lifecycle and the privacy-scrubbing logger.
package runtime
