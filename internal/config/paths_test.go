package config

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestPlatformDir(t *testing.T) {
	tests := []struct {
		name string
		p    Platform
		want string
	}{
		{"linux", Platform{GOOS: "linux", Home: "/home/user"}, "/etc/chatpredict"},
		{"darwin", Platform{GOOS: "darwin", Home: "/Users/test"}, "/Users/test/Library/Application Support/chatpredict"},
		{"windows", Platform{GOOS: "windows", ProgramData: `C:\ProgramData\`}, "C:/ProgramData/chatpredict"},
		{"windows default ProgramData", Platform{GOOS: "windows"}, "C:/ProgramData/chatpredict"},
		{"override", Platform{GOOS: "linux", ConfigDir: "/opt/cp"}, "/opt/cp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := strings.ReplaceAll(tt.p.Dir(), `\`, "/"); got != tt.want {
				t.Errorf("dir: got %q want %q", got, tt.want)
			}
		})
	}
}

func TestDefaultConfigPathOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CHATPREDICT_CONFIG_DIR", dir)
	if got := DefaultConfigPath("server.yaml"); got != filepath.Join(dir, "server.yaml") {
		t.Fatalf("path = %q", got)
	}
}
