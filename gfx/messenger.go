// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

// Severity of a debug message.
type Severity uint32

// Message severities.
const (
	SeverityVerbose Severity = 1 << iota
	SeverityInfo
	SeverityWarning
	SeverityError

	SeverityAll = SeverityVerbose | SeverityInfo | SeverityWarning | SeverityError
)

// MessageType is the origin category of a debug message.
type MessageType uint32

// Message types.
const (
	MessageGeneral MessageType = 1 << iota
	MessageValidation
	MessagePerformance

	MessageAll = MessageGeneral | MessageValidation | MessagePerformance
)

// Message is a single debug message emitted by the driver or its layers.
type Message struct {
	Severity Severity
	Type     MessageType
	Layer    string
	Code     int32
	Text     string
}

// MessengerInfo describes which messages are delivered to the callback.
// The callback never aborts the driver call that produced the message.
type MessengerInfo struct {
	Severities Severity
	Types      MessageType
	Callback   func(Message)
}
