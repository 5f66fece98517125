package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/op/go-logging"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseLevel(t *testing.T) {
	Convey("Level names are case-insensitive", t, func() {
		cases := map[string]logging.Level{
			"":        logging.INFO,
			"debug":   logging.DEBUG,
			"Warn":    logging.WARNING,
			"warning": logging.WARNING,
			"ERROR":   logging.ERROR,
		}
		for in, want := range cases {
			got, err := ParseLevel(in)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, want)
		}
		_, err := ParseLevel("chatty")
		So(err, ShouldNotBeNil)
	})
}

func TestSetup(t *testing.T) {
	Convey("Records below the level are dropped", t, func() {
		var buf bytes.Buffer
		install(&buf, logging.WARNING)
		log := logging.MustGetLogger("test")

		log.Info("quiet")
		log.Warning("loud")
		So(buf.String(), ShouldNotContainSubstring, "quiet")
		So(buf.String(), ShouldContainSubstring, "loud")
		So(buf.String(), ShouldContainSubstring, "WARN")
	})

	Convey("A file path gets a rotating file", t, func() {
		p := filepath.Join(t.TempDir(), "cart.log")
		closer, err := Setup(Options{Level: "info", Path: p, MaxSizeMB: 1})
		So(err, ShouldBeNil)
		logging.MustGetLogger("test").Info("hello file")
		So(closer.Close(), ShouldBeNil)

		b, err := os.ReadFile(p)
		So(err, ShouldBeNil)
		So(string(b), ShouldContainSubstring, "hello file")
	})

	Convey("A bad level fails before anything is installed", t, func() {
		_, err := Setup(Options{Level: "chatty", Path: "-"})
		So(err, ShouldNotBeNil)
	})
}
