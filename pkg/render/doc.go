// Package render runs a render job: every track's frames are encoded,
// multiplexed in presentation order and handed to a container writer.
//
// A Job validates its inputs before anything is started; a job with
// validation problems never touches an encoder. The multiplexer is driven
// on a dedicated worker goroutine that feeds a writer goroutine, and both
// stop together on the first failure. Every encoder is closed before the
// job reports its outcome.
package render
