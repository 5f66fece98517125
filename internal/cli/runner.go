package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/op/go-logging"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/idilsaglam/cart/internal/cart"
	"github.com/idilsaglam/cart/internal/config"
	cartlog "github.com/idilsaglam/cart/internal/logging"
	"github.com/idilsaglam/cart/internal/model"
	"github.com/idilsaglam/cart/internal/store"
	"github.com/idilsaglam/cart/internal/store/backend"
	"github.com/idilsaglam/cart/internal/tui"
	"github.com/idilsaglam/cart/internal/ui"
)

var log = logging.MustGetLogger("cli")

// closeTimeout bounds the final write on exit.
const closeTimeout = 10 * time.Second

// Options tune where the runner reads and writes.
type Options struct {
	Stdout, Stderr io.Writer                              // nil keeps the terminal
	Open           func(config.Storage) (store.KV, error) // nil is backend.Open
}

// runtimeError marks failures that are not the caller's fault (exit 1).
// Everything else that reaches Run is a usage error (exit 2).
type runtimeError struct{ err error }

func (e runtimeError) Error() string { return e.err.Error() }
func (e runtimeError) Unwrap() error { return e.err }

func failed(op string, err error) error {
	return runtimeError{fmt.Errorf("%s: %w", op, err)}
}

type session struct {
	opt        Options
	configPath string
	ephemeral  bool
	theme      string
	color      bool
	noColor    bool

	kv      store.KV
	cart    *cart.Store
	closers []io.Closer
}

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func Run(ctx context.Context, args []string, opt Options) int {
	ui.SetOutput(opt.Stdout, opt.Stderr)
	ui.SetColorForcing(false, false)
	if opt.Open == nil {
		opt.Open = backend.Open
	}

	s := &session{opt: opt}
	root := s.rootCommand()
	root.SetArgs(args)
	if opt.Stdout != nil {
		root.SetOut(opt.Stdout)
	}
	if opt.Stderr != nil {
		root.SetErr(opt.Stderr)
	}

	if len(args) == 0 {
		root.Help()
		return 2
	}

	err := root.ExecuteContext(ctx)
	if cerr := s.close(); cerr != nil && err == nil {
		err = cerr
	}
	if err == nil {
		return 0
	}

	ui.Fail(err.Error())
	var rt runtimeError
	if errors.As(err, &rt) {
		return 1
	}
	ui.Hint("Hint: run `cart help` for usage")
	return 2
}

func (s *session) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "cart",
		Short: "cart - a shopping cart kept in local storage",
		Example: `  cart add --price 10 Running shoe
  cart ls
  cart inc <id>
  cart dec <id>
  cart tui`,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: s.open,
	}
	root.PersistentFlags().StringVar(&s.configPath, "config", "", "TOML config file (default ./cart.toml when present)")
	root.PersistentFlags().BoolVar(&s.ephemeral, "ephemeral", false, "keep the cart in memory only")
	root.PersistentFlags().StringVar(&s.theme, "theme", "", "output theme: classic, neon or mono")
	root.PersistentFlags().BoolVar(&s.color, "color", false, "color output even when it is not a terminal")
	root.PersistentFlags().BoolVar(&s.noColor, "no-color", false, "never color output")
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetFlagErrorFunc(func(c *cobra.Command, err error) error { return err })
	root.SetHelpCommand(&cobra.Command{
		Use:   "help [command]",
		Short: "Help about any command",
		Run: func(c *cobra.Command, args []string) {
			target, _, err := c.Root().Find(args)
			if target == nil || err != nil {
				target = c.Root()
			}
			target.Help()
		},
	})

	root.AddCommand(
		s.listCommand(),
		s.addCommand(),
		s.adjustCommand("inc", "Add one to the quantity of every line with <id>", (*cart.Store).Increment),
		s.adjustCommand("dec", "Take one off the quantity of every line with <id> (may go below zero)", (*cart.Store).Decrement),
		&cobra.Command{
			Use:   "tui",
			Short: "Browse and edit the cart interactively",
			Args:  cobra.NoArgs,
			RunE: func(c *cobra.Command, args []string) error {
				if err := tui.Run(c.Context()); err != nil {
					return failed("tui", err)
				}
				return nil
			},
		},
	)
	return root
}

// open resolves the configuration and puts the cart store into the command
// context. Help runs without it.
func (s *session) open(c *cobra.Command, args []string) error {
	ui.SetColorForcing(s.color, s.noColor)
	if c.Name() == "help" {
		return nil
	}
	cfg, err := config.Load(s.configPath)
	if err != nil {
		return failed("config", err)
	}
	if s.ephemeral {
		cfg.Storage.Backend = "memory"
	}
	if s.theme != "" {
		cfg.UI.Theme = s.theme
	}
	ui.SetTheme(cfg.UI.Theme)

	logs, err := cartlog.Setup(cartlog.Options{
		Level:      cfg.Log.Level,
		Path:       cfg.LogPath(),
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	if err != nil {
		return failed("logging", err)
	}
	s.closers = append(s.closers, logs)

	kv, err := s.opt.Open(cfg.Storage)
	if err != nil {
		return failed("storage", err)
	}
	s.kv = kv
	timeout, _ := cfg.Storage.Timeout()
	s.cart = cart.New(kv, cart.WithKey(cfg.Storage.Key), cart.WithWriteTimeout(timeout))
	log.Debugf("opened %s backend, key %s", cfg.Storage.Backend, cfg.Storage.Key)

	c.SetContext(cart.NewContext(c.Context(), s.cart))
	return nil
}

// close flushes the cart, then releases storage and the log file.
func (s *session) close() error {
	var err error
	if s.cart != nil {
		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		if cerr := s.cart.Close(ctx); cerr != nil {
			err = failed("save", cerr)
		}
		cancel()
	}
	if s.kv != nil {
		if cerr := s.kv.Close(); cerr != nil && err == nil {
			err = failed("close storage", cerr)
		}
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i].Close()
	}
	return err
}

// loadedCart returns the store from the command context once its initial
// load is done.
func loadedCart(c *cobra.Command) (*cart.Store, error) {
	st, err := cart.FromContext(c.Context())
	if err != nil {
		return nil, runtimeError{err}
	}
	if err := st.WaitLoaded(c.Context()); err != nil {
		return nil, failed("load", err)
	}
	return st, nil
}

// -------------- subcommand impls ----------------

func (s *session) listCommand() *cobra.Command {
	var asJSON bool
	c := &cobra.Command{
		Use:   "ls",
		Short: "List the cart",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			st, err := loadedCart(c)
			if err != nil {
				return err
			}
			items := st.Items()
			if asJSON {
				text, err := cart.Encode(items)
				if err != nil {
					return failed("encode", err)
				}
				ui.Println(text)
				return nil
			}
			ui.Panel(listLines(items))
			return nil
		},
	}
	c.Flags().BoolVar(&asJSON, "json", false, "print the stored JSON instead of a table")
	return c
}

func (s *session) addCommand() *cobra.Command {
	var id, image, price string
	c := &cobra.Command{
		Use:   "add --price <amount> <title...>",
		Short: "Put a product in the cart with quantity 1",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			title := strings.TrimSpace(strings.Join(args, " "))
			if title == "" {
				return errors.New("add: empty title")
			}
			amount, err := decimal.NewFromString(strings.TrimPrefix(strings.TrimSpace(price), "$"))
			if err != nil || amount.IsNegative() {
				return fmt.Errorf("add: not a price: %q", price)
			}
			if id == "" {
				id = uuid.NewString()
			}

			st, err := cart.FromContext(c.Context())
			if err != nil {
				return runtimeError{err}
			}
			st.AddToCart(model.Product{
				ID:       id,
				Title:    title,
				ImageURL: image,
				Price:    amount.InexactFloat64(),
			})
			ui.OK(fmt.Sprintf("added %s (%s)", title, id))
			return nil
		},
	}
	c.Flags().StringVar(&id, "id", "", "product id (default: a new UUID)")
	c.Flags().StringVar(&image, "image", "", "image URL")
	c.Flags().StringVar(&price, "price", "", "unit price")
	c.MarkFlagRequired("price")
	return c
}

func (s *session) adjustCommand(name, short string, op func(*cart.Store, string) bool) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			st, err := loadedCart(c)
			if err != nil {
				return err
			}
			id := args[0]
			if !op(st, id) {
				ui.Warn("no line with id " + id)
				ui.Hint("Hint: run `cart ls` to see valid ids")
				return nil
			}
			for _, it := range st.Items() {
				if it.ID == id {
					ui.OK(fmt.Sprintf("%s now %d", it.Title, it.Quantity))
					break
				}
			}
			return nil
		},
	}
}

// -------------- rendering helpers --------------

func listLines(items []model.LineItem) []string {
	t := ui.Current()
	subtotal := model.Subtotal(items)
	header := fmt.Sprintf("%s  %s %d  %s %d  %s %s",
		ui.C(t.Title, "Cart"),
		ui.C(t.Muted, "lines"), len(items),
		ui.C(t.Muted, "qty"), model.TotalQuantity(items),
		ui.C(t.Accent, "Subtotal"), ui.Money(subtotal),
	)

	lines := []string{header, ""}
	if len(items) == 0 {
		lines = append(lines, ui.C(t.Muted, "no items"))
	}
	for i, it := range items {
		title := ui.Truncate(it.Title, 60)
		qtyColor := t.Success
		switch {
		case it.Quantity < 0:
			qtyColor = t.Error
		case it.Quantity == 0:
			qtyColor = t.Muted
		}
		lines = append(lines, fmt.Sprintf("%s %s %s  %s  %s  %s  %s",
			ui.C(t.Muted, fmt.Sprintf("%2d.", i+1)),
			title,
			ui.C(qtyColor, fmt.Sprintf("%s%d", t.SymQty, it.Quantity)),
			ui.C(t.Muted, "@ "+ui.Money(decimal.NewFromFloat(it.Price))),
			ui.Money(it.LineTotal()),
			ui.C(t.Muted, ui.ShareBar(it.LineTotal(), subtotal, 12)),
			ui.C(t.Muted, it.ID),
		))
	}
	lines = append(lines, "")
	lines = append(lines, ui.C(t.Muted, "Tip: add with `cart add --price 10 Running shoe`"))
	return lines
}
