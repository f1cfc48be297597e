package geo

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixed map[string]Location

func (f fixed) Lookup(ip string) (Location, bool) {
	l, ok := f[ip]
	return l, ok
}

func TestChain(t *testing.T) {
	a := fixed{"1.1.1.1": {Country: "AU"}}
	b := fixed{"1.1.1.1": {Country: "US"}, "8.8.8.8": {Country: "US", Operator: "GOOGLE"}}
	c := NewChain(nil, a, b)

	l, ok := c.Lookup("1.1.1.1")
	require.True(t, ok)
	assert.Equal(t, "AU", l.Country)

	l, ok = c.Lookup("8.8.8.8")
	require.True(t, ok)
	assert.Equal(t, "GOOGLE", l.Operator)

	_, ok = c.Lookup("9.9.9.9")
	assert.False(t, ok)
}

func TestDynamic(t *testing.T) {
	var d Dynamic
	_, ok := d.Lookup("1.1.1.1")
	assert.False(t, ok)

	d.Set(fixed{"1.1.1.1": {Country: "AU"}})
	l, ok := d.Lookup("1.1.1.1")
	require.True(t, ok)
	assert.Equal(t, "AU", l.Country)

	d.Set(nil)
	_, ok = d.Lookup("1.1.1.1")
	assert.False(t, ok)
}

func TestDynamicConcurrentSwap(t *testing.T) {
	var d Dynamic
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			d.Set(fixed{"1.1.1.1": {Country: "AU"}})
		}()
		go func() {
			defer wg.Done()
			_, _ = d.Lookup("1.1.1.1")
		}()
	}
	wg.Wait()
	_, ok := d.Lookup("1.1.1.1")
	assert.True(t, ok)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "forwarded-for first hop", headers: map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, remote: "10.0.0.1:1234", want: "203.0.113.7"},
		{name: "real ip", headers: map[string]string{"X-Real-IP": "198.51.100.2"}, remote: "10.0.0.1:1234", want: "198.51.100.2"},
		{name: "forwarded header", headers: map[string]string{"Forwarded": "for=192.0.2.60;proto=http"}, remote: "10.0.0.1:1234", want: "192.0.2.60"},
		{name: "remote v4", remote: "192.0.2.1:5555", want: "192.0.2.1"},
		{name: "remote v6", remote: "[2001:db8::1]:5555", want: "2001:db8::1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/api/classify", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(r))
		})
	}
}

func TestParseRegion(t *testing.T) {
	l := parseRegion("中国|0|广东省|深圳市|电信")
	assert.Equal(t, Location{Country: "中国", Region: "广东省", City: "深圳市", Operator: "电信"}, l)

	l = parseRegion("United States|North America|0|0|Unknown")
	assert.Equal(t, Location{Country: "United States", Region: "North America"}, l)

	assert.True(t, parseRegion("0|0|0|0|0").Empty())
	assert.True(t, parseRegion("").Empty())
}

func TestOpenWithoutPaths(t *testing.T) {
	assert.Nil(t, Open("", "", ""))

	m, err := OpenMaxMind("", "")
	assert.NoError(t, err)
	assert.Nil(t, m)

	r, err := OpenIP2Region("")
	assert.NoError(t, err)
	assert.Nil(t, r)
}

func TestOpenMaxMindMissingFile(t *testing.T) {
	_, err := OpenMaxMind(t.TempDir()+"/missing.mmdb", "")
	assert.Error(t, err)
}

type closer struct {
	fixed
	closed bool
}

func (c *closer) Close() { c.closed = true }

func TestChainClose(t *testing.T) {
	c1 := &closer{fixed: fixed{}}
	NewChain(nil, fixed{}, c1).Close()
	assert.True(t, c1.closed)
}
