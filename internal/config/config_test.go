package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

// setenv sets key for one Convey leaf; t.Setenv would leak into sibling leaves.
func setenv(key, value string) func() {
	os.Setenv(key, value)
	return func() { os.Unsetenv(key) }
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	prevDotEnv := DotEnvFile
	DotEnvFile = filepath.Join(dir, "missing.env")
	t.Cleanup(func() { DotEnvFile = prevDotEnv })

	Convey("Without any file the defaults apply", t, func() {
		cfg, err := Load("")
		So(err, ShouldBeNil)
		So(cfg.Storage.Backend, ShouldEqual, "json")
		So(cfg.Storage.Key, ShouldEqual, "@app:cart")
		So(cfg.LogPath(), ShouldEqual, filepath.Join(".", "cart.log"))
	})

	Convey("An explicit file that does not exist is an error", t, func() {
		_, err := Load(filepath.Join(dir, "nope.toml"))
		So(err, ShouldNotBeNil)
	})

	Convey("A TOML file overrides the defaults", t, func() {
		p := writeFile(t, dir, "cart.toml", `
[storage]
backend = "LEDIS"
data_dir = "/tmp/cart"
write_timeout = "2s"

[log]
level = "debug"
file = "-"
`)
		cfg, err := Load(p)
		So(err, ShouldBeNil)
		So(cfg.Storage.Backend, ShouldEqual, "ledis")
		So(cfg.Storage.DataDir, ShouldEqual, "/tmp/cart")
		So(cfg.Storage.Key, ShouldEqual, DefaultKey)
		So(cfg.Log.Level, ShouldEqual, "debug")
		So(cfg.LogPath(), ShouldEqual, "-")

		d, err := cfg.Storage.Timeout()
		So(err, ShouldBeNil)
		So(d, ShouldEqual, 2*time.Second)

		Convey("and environment variables override the file", func() {
			defer setenv("CART_BACKEND", "memory")()
			defer setenv("CART_KEY", "other")()
			cfg, err := Load(p)
			So(err, ShouldBeNil)
			So(cfg.Storage.Backend, ShouldEqual, "memory")
			So(cfg.Storage.Key, ShouldEqual, "other")
		})
	})

	Convey("A .env file fills variables that are not set", t, func() {
		DotEnvFile = writeFile(t, dir, "test.env", "CART_THEME=neon\n")
		defer func() {
			DotEnvFile = filepath.Join(dir, "missing.env")
			os.Unsetenv("CART_THEME")
		}()

		cfg, err := Load("")
		So(err, ShouldBeNil)
		So(cfg.UI.Theme, ShouldEqual, "neon")
	})

	Convey("Invalid settings are rejected", t, func() {
		Convey("unknown backend", func() {
			defer setenv("CART_BACKEND", "floppy")()
			_, err := Load("")
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "floppy")
		})
		Convey("redis without an address", func() {
			defer setenv("CART_BACKEND", "redis")()
			_, err := Load("")
			So(err, ShouldNotBeNil)
		})
		Convey("bad timeout", func() {
			defer setenv("CART_WRITE_TIMEOUT", "soon")()
			_, err := Load("")
			So(err, ShouldNotBeNil)
		})
		Convey("unknown log level", func() {
			defer setenv("CART_LOG_LEVEL", "loud")()
			_, err := Load("")
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldStartWith, "config: log level")
		})
		Convey("warn is accepted as a level", func() {
			defer setenv("CART_LOG_LEVEL", "warn")()
			_, err := Load("")
			So(err, ShouldBeNil)
		})
	})
}
