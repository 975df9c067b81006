// Package encode adapts an external frame encoder to a packet iterator.
//
// The Adapter pulls frames lazily, so an encoder only runs when a consumer
// asks for its next packet. It repairs the timestamps encoders commonly
// leave unset or out of order, flushes the encoder exactly once and closes
// it exactly once.
package encode
