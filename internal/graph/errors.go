package graph

import "errors"

var (
	// ErrWrongGraphState indicates an operation not valid in the graph's current state.
	ErrWrongGraphState = errors.New("operation not valid in current graph state")
	// ErrCommandQueueFull indicates the audio thread has not drained earlier commands.
	ErrCommandQueueFull = errors.New("command queue full")
	// ErrUnknownInput indicates an audio input id past the configured count.
	ErrUnknownInput = errors.New("audio input not found")
	// ErrTooManyTracks indicates the track limit has been reached.
	ErrTooManyTracks = errors.New("track limit reached")
	// ErrInvalidFFT indicates an unusable FFT configuration.
	ErrInvalidFFT = errors.New("invalid fft configuration")
	// ErrInvalidConfig indicates an unusable graph configuration.
	ErrInvalidConfig = errors.New("invalid graph configuration")
	// ErrNegativeBlock indicates a block length below zero.
	ErrNegativeBlock = errors.New("negative block length")
	// ErrTimeout indicates the graph did not reach a state in time.
	ErrTimeout = errors.New("timed out waiting for graph state")
	// ErrDeviceFailure is recorded when Fail is called without a cause.
	ErrDeviceFailure = errors.New("audio device failure")
)
