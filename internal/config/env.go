package config

import (
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// LoadEnv loads environment variables from a .env file.
//
// Search order (stops at the first file found):
//  1. Explicit paths passed as arguments (test use).
//  2. The running executable's directory, walking up to 3 parents — so an
//     installed binary finds the project-root .env.
//  3. Current working directory — fallback for `go run ./cmd/advagent`.
//
// If no .env is found anywhere, the process continues with system env vars.
func LoadEnv(paths ...string) {
	if len(paths) > 0 {
		if err := godotenv.Load(paths...); err != nil {
			log.Printf("[Config] No .env file at specified path(s), using system environment variables")
		}
		return
	}

	candidates := envCandidates()
	for _, p := range candidates {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			log.Printf("[Config] Failed to load .env from %s: %v", p, err)
		} else {
			log.Printf("[Config] Loaded .env from %s", p)
		}
		return
	}

	log.Printf("[Config] No .env file found (searched: %v), using system environment variables", candidates)
}

// envCandidates returns the ordered list of .env paths to probe.
func envCandidates() []string {
	var candidates []string
	seen := map[string]bool{}

	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			candidates = append(candidates, p)
		}
	}

	if exe, err := os.Executable(); err == nil {
		if real, err := filepath.EvalSymlinks(exe); err == nil {
			exe = real
		}
		dir := filepath.Dir(exe)
		for i := 0; i <= 3; i++ {
			add(filepath.Join(dir, ".env"))
			parent := filepath.Dir(dir)
			if parent == dir {
				break // reached filesystem root
			}
			dir = parent
		}
	}

	if cwd, err := os.Getwd(); err == nil {
		add(filepath.Join(cwd, ".env"))
	}

	return candidates
}
