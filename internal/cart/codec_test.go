package cart

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/idilsaglam/cart/internal/model"
)

func TestCodec(t *testing.T) {
	Convey("Encoding then decoding returns the same cart in order", t, func() {
		items := []model.LineItem{
			{ID: "b", Title: "Bag", ImageURL: "https://img/b.png", Price: 49.99, Quantity: 2},
			{ID: "a", Title: "Átomo", ImageURL: "", Price: 0.1, Quantity: -3},
		}
		text, err := Encode(items)
		So(err, ShouldBeNil)
		So(text, ShouldStartWith, `[{"id":"b","title":"Bag","image_url":"https://img/b.png","price":49.99,"quantity":2}`)

		back, err := Decode(text)
		So(err, ShouldBeNil)
		So(back, ShouldResemble, items)
	})

	Convey("An empty cart encodes as an empty list", t, func() {
		text, err := Encode(nil)
		So(err, ShouldBeNil)
		So(text, ShouldEqual, "[]")
	})

	Convey("null decodes to an empty cart", t, func() {
		items, err := Decode("null")
		So(err, ShouldBeNil)
		So(items, ShouldNotBeNil)
		So(items, ShouldBeEmpty)
	})

	Convey("Blobs that are not a cart are malformed", t, func() {
		for _, text := range []string{"", "{", `{"id":"p1"}`, `[{"id":1}]`, `[{"title":"no id"}]`} {
			_, err := Decode(text)
			So(errors.Is(err, ErrMalformed), ShouldBeTrue)
		}
	})
}

func TestContext(t *testing.T) {
	Convey("Outside a provider the store is not available", t, func() {
		_, err := FromContext(context.Background())
		So(err, ShouldEqual, ErrNoProvider)
		So(err.Error(), ShouldEqual, "cart: store not available; must be used within a cart provider")
		So(func() { MustFromContext(context.Background()) }, ShouldPanicWith, ErrNoProvider)
	})

	Convey("Inside a provider every consumer sees the same store", t, func() {
		s := New(newFakeKV())
		defer s.Close(context.Background())

		ctx := NewContext(context.Background(), s)
		child, cancel := context.WithCancel(ctx)
		defer cancel()

		got, err := FromContext(child)
		So(err, ShouldBeNil)
		So(got, ShouldEqual, s)
		So(MustFromContext(ctx), ShouldEqual, s)
	})
}
