// Package multipart implements the multipart/mixed batch protocol.
//
// A batch is a single HTTP request whose body carries several inner HTTP
// requests, each framed as an `application/http` part:
//
//	--{boundary}
//	Content-Type: application/http
//
//	POST /b HTTP/1.1
//	Host: example.com
//	Content-Type: application/json; charset=utf-8
//
//	{"x":1}
//	--{boundary}--
//
// The server answers with a multipart/mixed body holding one inner HTTP
// response per part, in request order.
//
// Client side: Encode builds the batch body, Decode turns the batch response
// into an ordered list of PartResult values.
//
// Server side: ParseRequest splits an incoming batch body into InboundPart
// values and EncodeResponse frames the collected part responses.
//
// The boundary is not escaped or checked for collisions with part content.
// Callers must pick a boundary that does not occur in any part, NewBoundary
// returns one suitable for a single in-flight batch.
package multipart
