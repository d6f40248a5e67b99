package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReports() []funcReport {
	return []funcReport{
		{
			Function: "p.ClampIndex",
			Conds: []condReport{
				{
					Cond: "t0",
					Blocks: []blockFacts{
						{Block: 1, Lt: []string{"(i < n + 0)=true"}},
						{Block: 2, Lt: []string{"(n < i + 1)=true"}},
					},
				},
			},
		},
	}
}

func TestEmitText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, emit(&buf, sampleReports(), false))

	out := buf.String()
	assert.Contains(t, out, "p.ClampIndex")
	assert.Contains(t, out, "cond t0")
	assert.Contains(t, out, "block 1")
	assert.Contains(t, out, "(i < n + 0)=true")
}

func TestEmitJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, emit(&buf, sampleReports(), true))

	var got []funcReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, sampleReports(), got)
}

func TestRootCmd(t *testing.T) {
	cmd := newRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{"--func", "ClampIndex", "../../testdata/guards.go"})

	require.NoError(t, cmd.Execute())
	out := buf.String()
	assert.Contains(t, out, "ClampIndex")
	assert.True(t, strings.Contains(out, "< n + 0)=true") || strings.Contains(out, "< i + 1)=true"),
		"no guard fact in output:\n%s", out)
}

func TestRootCmdRequiresArgs(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(nil)
	assert.Error(t, cmd.Execute())
}
