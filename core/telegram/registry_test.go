package telegram

import (
	"testing"

	"github.com/m3rciful/keyshop/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

func nop(tele.Context) error { return nil }

func TestRegistryCallbackExactBeatsPrefix(t *testing.T) {
	reg := NewRegistry()

	var hits []string
	mark := func(name string) tele.HandlerFunc {
		return func(tele.Context) error {
			hits = append(hits, name)
			return nil
		}
	}

	if err := reg.RegisterCallback("add_key", mark("exact")); err != nil {
		t.Fatal(err)
	}
	if err := reg.RegisterCallbackPrefix("add_", mark("prefix")); err != nil {
		t.Fatal(err)
	}

	h, ok := reg.GetCallback("add_key")
	if !ok {
		t.Fatal("handler not found")
	}
	_ = h(nil)
	if len(hits) != 1 || hits[0] != "exact" {
		t.Fatalf("hits = %v", hits)
	}
}

func TestRegistryCallbackLongestPrefixWins(t *testing.T) {
	reg := NewRegistry()

	var got string
	mark := func(name string) tele.HandlerFunc {
		return func(tele.Context) error {
			got = name
			return nil
		}
	}

	if err := reg.RegisterCallbackPrefix("key_", mark("short")); err != nil {
		t.Fatal(err)
	}
	if err := reg.RegisterCallbackPrefix("key_cat_", mark("long")); err != nil {
		t.Fatal(err)
	}

	h, ok := reg.GetCallback("key_cat_12")
	if !ok {
		t.Fatal("handler not found")
	}
	_ = h(nil)
	if got != "long" {
		t.Fatalf("resolved %q, expected longest prefix", got)
	}

	if _, ok := reg.GetCallback("unrelated"); ok {
		t.Fatal("unexpected match for unrelated key")
	}
}

func TestRegistryDuplicateRegistrationRejected(t *testing.T) {
	reg := NewRegistry()

	if err := reg.RegisterCallback("cart", nop); err != nil {
		t.Fatal(err)
	}
	if err := reg.RegisterCallback("cart", nop); err == nil {
		t.Fatal("duplicate exact registration accepted")
	}
	if err := reg.RegisterCallbackPrefix("order_", nop); err != nil {
		t.Fatal(err)
	}
	if err := reg.RegisterCallbackPrefix("order_", nop); err == nil {
		t.Fatal("duplicate prefix registration accepted")
	}
}

func TestRegistryCommandLookupWithAliases(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/admin", commands.Command{
		Handler:     nop,
		Description: "Admin menu",
		AdminOnly:   true,
		Aliases:     []string{"panel"},
	})

	if _, _, ok := reg.LookupCommand("/admin"); !ok {
		t.Fatal("command not found by name")
	}
	if key, _, ok := reg.LookupCommand("panel"); !ok || key != "/admin" {
		t.Fatalf("alias lookup = %q, %v", key, ok)
	}
	if _, _, ok := reg.LookupCommand("/missing"); ok {
		t.Fatal("missing command resolved")
	}

	visible := reg.ListCommands(true)
	if len(visible) != 0 {
		t.Fatalf("admin-only command listed as visible: %v", visible)
	}
}
