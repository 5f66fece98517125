package ui_test

import (
	"bytes"
	"regexp"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/idilsaglam/cart/internal/model"
	"github.com/idilsaglam/cart/internal/ui"
)

var escapes = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func plain(s string) string { return escapes.ReplaceAllString(s, "") }

func TestRendering(t *testing.T) {
	var out, errOut bytes.Buffer
	ui.SetOutput(&out, &errOut)
	ui.SetColorForcing(false, false)
	ui.SetTheme("mono")
	t.Cleanup(func() { ui.SetTheme("") })

	Convey("ShareBar fills in proportion", t, func() {
		So(ui.ShareBar(decimal.NewFromInt(1), decimal.NewFromInt(2), 10), ShouldEqual, "#####.....")
		So(ui.ShareBar(decimal.NewFromInt(-1), decimal.NewFromInt(2), 5), ShouldEqual, ".....")
		So(ui.ShareBar(decimal.Zero, decimal.Zero, 2), ShouldEqual, ".....")
	})

	Convey("ShareBar caps a line worth more than the subtotal", t, func() {
		items := []model.LineItem{
			{ID: "a", Title: "Shoe", Price: 10, Quantity: 1},
			{ID: "b", Title: "Sock", Price: 5, Quantity: -1},
		}
		subtotal := model.Subtotal(items)
		So(subtotal.String(), ShouldEqual, "5")
		So(ui.ShareBar(items[0].LineTotal(), subtotal, 6), ShouldEqual, "######")
		So(ui.ShareBar(items[1].LineTotal(), subtotal, 6), ShouldEqual, "......")
	})

	Convey("Panel frames every line to the widest one", t, func() {
		out.Reset()
		ui.Panel([]string{"Cart", "\033[32mÁtomo\033[0m ok"})
		lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
		So(lines, ShouldHaveLength, 4)
		So(lines[0], ShouldEqual, "+----------+")
		So(lines[1], ShouldEqual, "| Cart     |")
		So(plain(lines[2]), ShouldEqual, "| Átomo ok |")
		So(lines[3], ShouldEqual, "+----------+")
	})

	Convey("Truncate counts cells, not bytes", t, func() {
		cut := ui.Truncate(strings.Repeat("a", 6)+"ééééé", 10)
		So(utf8.ValidString(cut), ShouldBeTrue)
		So(cut, ShouldEqual, "aaaaaaé...")
		So(ui.Truncate("Átomo", 10), ShouldEqual, "Átomo")
	})

	Convey("Money keeps two decimals", t, func() {
		So(ui.Money(decimal.NewFromFloat(2.5)), ShouldEqual, "$2.50")
		So(ui.Money(decimal.NewFromInt(-3)), ShouldEqual, "$-3.00")
	})

	Convey("Status helpers go to the right stream", t, func() {
		out.Reset()
		errOut.Reset()
		ui.OK("added")
		ui.Fail("boom")
		ui.Warn("careful")
		So(out.String(), ShouldEqual, "✔ added\n")
		So(errOut.String(), ShouldEqual, "✖ boom\n! careful\n")
	})

	Convey("Forced color paints with the theme palette", t, func() {
		ui.SetTheme("classic")
		Reset(func() {
			ui.SetColorForcing(false, false)
			ui.SetTheme("mono")
		})

		ui.SetColorForcing(true, false)
		out.Reset()
		ui.OK("added")
		So(out.String(), ShouldEqual, "\033[32m✔ added\033[0m\n")

		Convey("unless color is disabled", func() {
			ui.SetColorForcing(true, true)
			out.Reset()
			ui.OK("added")
			So(out.String(), ShouldEqual, "✔ added\n")
		})

		Convey("the mono theme has no palette", func() {
			ui.SetTheme("mono")
			So(ui.C(ui.Current().Success, "x"), ShouldEqual, "x")
		})
	})
}
