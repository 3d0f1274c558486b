package domain

import "time"

type VoiceOptions struct {
	Rate  float64
	Pitch float64
	Voice string
}

type ChunkOptions struct {
	VoiceOptions
	PauseBetweenChunks time.Duration
	OnProgress         func(done, total int)
}

type Transcript struct {
	Text  string
	Final bool
}
