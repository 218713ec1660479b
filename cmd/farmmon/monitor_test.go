//go:build !rp2040

package main

import (
	"strings"
	"testing"

	"farmnode-go/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMonitorSummarisesStream(t *testing.T) {
	stream := strings.Join([]string{
		"12:00:00.000\tINFO\tnode ready",
		"status,1,22,60,1,450,safe,0",
		"status,2,30,55,1,800,danger,1",
		"status,3,30,55,0,810,danger,1",
		"garbage",
		"status,6,25,58,1,700,warning,0",
	}, "\r\n") + "\r\n"

	core, logs := observer.New(zapcore.DebugLevel)
	s, err := monitor(strings.NewReader(stream), zap.New(core))
	require.NoError(t, err)

	assert.Equal(t, 4, s.Records)
	assert.Equal(t, 2, s.Other)
	assert.Equal(t, 1, s.Invalid)
	assert.Equal(t, 2, s.Gaps)
	assert.Equal(t, 2, s.Transitions)
	assert.Equal(t, uint32(6), s.Last.Seq)
	assert.Equal(t, types.TierWarning, s.Last.State.Tier)

	changes := logs.FilterMessage("alarm tier changed").All()
	require.Len(t, changes, 2)
	assert.Equal(t, zapcore.WarnLevel, changes[0].Level, "entering danger warns")
	assert.Equal(t, zapcore.InfoLevel, changes[1].Level)
	assert.Equal(t, 1, logs.FilterMessage("missed status lines").Len())
}

func TestMonitorEmptyStream(t *testing.T) {
	s, err := monitor(strings.NewReader(""), zap.NewNop())
	require.NoError(t, err)
	assert.Zero(t, s.Records)
}
