// Package pipeline implements a line-oriented connection pipeline.
//
// Every received line gets one reply:
//
//	PING      -> +PONG
//	QUIT      -> +BYE, then the connection is released
//	<other>   -> the line echoed back
//
// A connection idle for longer than the idle timeout is released. When
// transcripts are enabled each received line is also spooled to a scratch
// file owned by the connection, removed on teardown.
package pipeline
