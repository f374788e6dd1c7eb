// Package telemetry defines the CSI/TA sample model and its wire codec.
//
// One sample carries the channel state information estimated for a single
// radio symbol on one (rx port, tx port) link, together with the timing
// advance offset measured at the same instant. Samples travel as UDP
// datagrams, one datagram per record, in a fixed-width binary layout so the
// decoder can recover record boundaries purely from datagram boundaries.
//
// The same record layout is reused verbatim by the capture file written by
// the consumer process, so live capture and offline replay share one codec.
package telemetry
