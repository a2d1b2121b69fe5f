package brewsvc

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseServiceList(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Snapshot
	}{
		{
			name: "empty input",
			raw:  "",
			want: Snapshot{},
		},
		{
			name: "header only",
			raw:  "Name Status User File",
			want: Snapshot{},
		},
		{
			name: "header is never validated",
			raw:  "redis started bob\npostgresql started",
			want: Snapshot{{Name: "postgresql", State: "started"}},
		},
		{
			name: "padded columns collapse",
			raw:  "Name    Status  User File\nunbound none\nnginx   started root /Library/LaunchDaemons/homebrew.mxcl.nginx.plist",
			want: Snapshot{
				{Name: "unbound", State: "none"},
				{Name: "nginx", State: "started", User: "root", ConfigPath: "/Library/LaunchDaemons/homebrew.mxcl.nginx.plist", HasConfig: true},
			},
		},
		{
			name: "state is lowercased",
			raw:  "Name Status\ndnsmasq Error root",
			want: Snapshot{{Name: "dnsmasq", State: "error", User: "root"}},
		},
		{
			name: "config path with spaces is rejoined",
			raw:  "Name Status User File\nsyncthing started ann /Users/ann/Library/Launch  Agents/sync thing.plist",
			want: Snapshot{{Name: "syncthing", State: "started", User: "ann", ConfigPath: "/Users/ann/Library/Launch Agents/sync thing.plist", HasConfig: true}},
		},
		{
			name: "blank line yields default record",
			raw:  "Name Status\n\nredis started",
			want: Snapshot{{State: "unknown"}, {Name: "redis", State: "started"}},
		},
		{
			name: "name only",
			raw:  "Name Status\nmemcached",
			want: Snapshot{{Name: "memcached", State: "unknown"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseServiceList(tt.raw))
		})
	}
}

func TestParseServiceListEndToEnd(t *testing.T) {
	got := ParseServiceList(trimListOutput([]byte(twoService)))
	require.Len(t, got, 2)

	assert.Equal(t, ServiceRecord{Name: "redis", State: "started", User: "bob"}, got[0])
	assert.Equal(t, ServiceRecord{
		Name:       "mysql",
		State:      "stopped",
		User:       "bob",
		ConfigPath: "/usr/local/etc/mysql.plist",
		HasConfig:  true,
	}, got[1])

	assert.Equal(t, ColorActive, got[0].Color())
	assert.Equal(t, ColorWarning, got[1].Color())

	for _, svc := range got {
		assert.True(t, svc.EnabledFor("bob"), svc.Name)
		assert.False(t, svc.EnabledFor("alice"), svc.Name)
	}
}

func TestParseServiceListOneRecordPerLine(t *testing.T) {
	states := []string{"started", "stopped", "none", "error", "unknown"}
	for n := 0; n < 20; n++ {
		lines := []string{"Name Status User File"}
		for i := 0; i < n; i++ {
			line := fmt.Sprintf("svc%d %s user%d", i, states[i%len(states)], i)
			if i%2 == 0 {
				line += fmt.Sprintf(" /etc/svc%d.plist", i)
			}
			lines = append(lines, line)
		}

		got := ParseServiceList(strings.Join(lines, "\n"))
		require.Len(t, got, n)
		for i, svc := range got {
			assert.Equal(t, fmt.Sprintf("svc%d", i), svc.Name)
			assert.Equal(t, i%2 == 0, svc.HasConfig)
		}
	}
}

func TestConfigPathRejoinIsStable(t *testing.T) {
	paths := []string{
		"/usr/local/etc/mysql.plist",
		"/Users/a b/Library/LaunchAgents/x.plist",
		"C: \\odd path\\with many spaces",
	}
	for _, p := range paths {
		rec := ParseServiceLine("svc started me " + p)
		require.True(t, rec.HasConfig)

		again := ParseServiceLine("svc started me " + rec.ConfigPath)
		assert.Equal(t, rec.ConfigPath, again.ConfigPath)
		assert.Equal(t, splitColumns(p), strings.Split(rec.ConfigPath, " "))
	}
}

func TestTrimListOutput(t *testing.T) {
	assert.Equal(t, "Name\nredis started", trimListOutput([]byte("\nName\nredis started\n\n")))
	assert.Equal(t, "", trimListOutput(nil))
}

func FuzzParseServiceList(f *testing.F) {
	f.Add(twoService)
	f.Add("")
	f.Add("Name\n\n\n")
	f.Add("Name Status\n   \nx  STARTED  y  a  b  c")

	f.Fuzz(func(t *testing.T, raw string) {
		got := ParseServiceList(raw)

		lines := strings.Split(raw, "\n")
		want := len(lines) - 1
		if want < 0 {
			want = 0
		}
		if len(got) != want {
			t.Fatalf("got %d records for %d data lines", len(got), want)
		}
		for _, svc := range got {
			if svc.State != strings.ToLower(svc.State) {
				t.Errorf("state not lowercased: %q", svc.State)
			}
			if svc.State == "" {
				t.Error("empty state")
			}
			if !svc.HasConfig && svc.ConfigPath != "" {
				t.Errorf("config path without flag: %q", svc.ConfigPath)
			}
		}
	})
}
