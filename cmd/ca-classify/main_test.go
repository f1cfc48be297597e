package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ca-probe/internal/aggregation"
)

const snapshot = `{"network_type":15,"cells":[
 {"type":"wcdma","registered":true,"psc":5,"uarfcn":100},
 {"type":"wcdma","registered":false,"psc":5,"uarfcn":200}]}`

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &out)
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.Execute()
	return out.String(), err
}

func TestClassifyFromStdin(t *testing.T) {
	out, err := run(t, snapshot)
	require.NoError(t, err)
	want := strings.Join([]string{
		"Android framework network type - 3G/HSPA+",
		"Connected to 3G network",
		"Serving cell ... PSC 5, UARFCN 100",
		"Sibling cell ... PSC 5, UARFCN 200",
		"✓ Probably running on HSPA+ 42 network",
		"✓ Carrier aggregation of 100 + 200",
	}, "\n") + "\n"
	if diff := cmp.Diff(want, out); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestClassifyNetworkTypeOverride(t *testing.T) {
	out, err := run(t, snapshot, "-", "--network-type", "99")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Android framework network type - 99\n"))
}

func TestClassifyYAMLFileAsJSON(t *testing.T) {
	p := filepath.Join(t.TempDir(), "snap.yaml")
	body := "network_type: 13\ncells:\n  - type: lte\n    registered: true\n    pci: 1\n    earfcn: 300\n"
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))

	out, err := run(t, "", p, "--json")
	require.NoError(t, err)
	var doc aggregation.Document
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "4G/LTE", doc.NetworkType.Label)
	require.Len(t, doc.Results, 1)
	assert.Equal(t, aggregation.VerdictNotDetected, doc.Results[0].Verdict)
	assert.False(t, doc.Results[0].Confident)
}

func TestClassifyErrors(t *testing.T) {
	_, err := run(t, "{not json")
	assert.Error(t, err)

	_, err = run(t, "", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = run(t, snapshot, "a", "b")
	assert.Error(t, err)
}
