package backend

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/idilsaglam/cart/internal/config"
	"github.com/idilsaglam/cart/internal/store/jsonstore"
	"github.com/idilsaglam/cart/internal/store/ledisstore"
	"github.com/idilsaglam/cart/internal/store/memstore"
)

func TestOpen(t *testing.T) {
	Convey("Open picks the backend by name", t, func() {
		dir := t.TempDir()

		kv, err := Open(config.Storage{Backend: "json", DataDir: dir})
		So(err, ShouldBeNil)
		So(kv, ShouldHaveSameTypeAs, &jsonstore.Store{})
		So(kv.Close(), ShouldBeNil)

		kv, err = Open(config.Storage{Backend: "memory"})
		So(err, ShouldBeNil)
		So(kv, ShouldHaveSameTypeAs, &memstore.Store{})

		kv, err = Open(config.Storage{Backend: "ledis", DataDir: dir})
		So(err, ShouldBeNil)
		So(kv, ShouldHaveSameTypeAs, &ledisstore.Store{})
		So(kv.Set(context.Background(), "k", "v"), ShouldBeNil)
		So(kv.Close(), ShouldBeNil)

		_, err = Open(config.Storage{Backend: "tape"})
		So(err, ShouldNotBeNil)
	})
}
