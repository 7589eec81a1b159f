package dialog

import (
	"context"
	"fmt"
	"testing"

	"github.com/m3rciful/keyshop/core/telegram/state"
)

const (
	stepName  state.State = "test:name"
	stepPrice state.State = "test:price"
	stepImage state.State = "test:image"
)

func testForm() *Form {
	return &Form{
		Name: "test_product",
		Steps: []Step{
			{
				ID:     stepName,
				Prompt: "Enter the name",
				Field:  "name",
				Parse: func(in Input) (any, error) {
					return ValidateProductName(in.Text)
				},
			},
			{
				ID:     stepPrice,
				Prompt: "Enter the price",
				Field:  "price",
				Parse: func(in Input) (any, error) {
					d, err := ParsePrice(in.Text)
					if err != nil {
						return nil, err
					}
					return d.StringFixed(2), nil
				},
			},
			{
				ID:     stepImage,
				Prompt: "Send a photo",
				Field:  "image",
				Parse: func(in Input) (any, error) {
					if in.PhotoID == "" {
						return nil, fmt.Errorf("a photo is required")
					}
					return in.PhotoID, nil
				},
			},
		},
		EditSource: func(_ context.Context, editID int64, field string) (any, error) {
			switch field {
			case "name":
				return fmt.Sprintf("stored-name-%d", editID), nil
			case "price":
				return "10.00", nil
			case "image":
				return "stored-photo", nil
			}
			return nil, fmt.Errorf("no such field %q", field)
		},
	}
}

func TestFormHappyPath(t *testing.T) {
	ctx := context.Background()
	mgr := state.NewMemoryManager()
	eng := NewEngine(mgr, testForm())

	prompt, err := eng.Start(42)
	if err != nil {
		t.Fatal(err)
	}
	if prompt != "Enter the name" {
		t.Fatalf("prompt = %q", prompt)
	}
	if !mgr.InProgress(42) {
		t.Fatal("dialog not in progress after Start")
	}

	res, err := eng.Handle(ctx, 42, Input{Text: "Cool Game Key"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Prompt != "Enter the price" {
		t.Fatalf("prompt = %q", res.Prompt)
	}

	res, err = eng.Handle(ctx, 42, Input{Text: "19.99"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Prompt != "Send a photo" {
		t.Fatalf("prompt = %q", res.Prompt)
	}

	res, err = eng.Handle(ctx, 42, Input{PhotoID: "file-123"})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Done {
		t.Fatalf("not done: %+v", res)
	}
	if res.Fields["name"] != "Cool Game Key" || res.Fields["price"] != "19.99" || res.Fields["image"] != "file-123" {
		t.Fatalf("fields = %+v", res.Fields)
	}
	if mgr.InProgress(42) {
		t.Fatal("state not cleared after final step")
	}
}

func TestFormInvalidInputKeepsEarlierAnswers(t *testing.T) {
	ctx := context.Background()
	mgr := state.NewMemoryManager()
	eng := NewEngine(mgr, testForm())

	_, _ = eng.Start(42)
	if _, err := eng.Handle(ctx, 42, Input{Text: "Cool Game Key"}); err != nil {
		t.Fatal(err)
	}

	res, err := eng.Handle(ctx, 42, Input{Text: "not-a-number"})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Invalid || res.ErrText == "" {
		t.Fatalf("expected invalid result, got %+v", res)
	}
	if res.Prompt != "Enter the price" {
		t.Fatalf("reprompt = %q", res.Prompt)
	}
	if mgr.Step(42) != stepPrice {
		t.Fatalf("step moved to %q", mgr.Step(42))
	}
	if mgr.FieldString(42, "name") != "Cool Game Key" {
		t.Fatal("earlier answer lost on invalid input")
	}

	// Valid retry proceeds.
	res, _ = eng.Handle(ctx, 42, Input{Text: "5"})
	if res.Prompt != "Send a photo" {
		t.Fatalf("prompt = %q", res.Prompt)
	}
}

func TestFormBackAndCancel(t *testing.T) {
	ctx := context.Background()
	mgr := state.NewMemoryManager()
	eng := NewEngine(mgr, testForm())

	_, _ = eng.Start(42)

	// Back at the first step re-prompts it.
	res, err := eng.Handle(ctx, 42, Input{Text: "back"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Prompt != "Enter the name" || mgr.Step(42) != stepName {
		t.Fatalf("back at first step: %+v, step %q", res, mgr.Step(42))
	}

	_, _ = eng.Handle(ctx, 42, Input{Text: "Cool Game Key"})
	res, _ = eng.Handle(ctx, 42, Input{Text: "/back"})
	if res.Prompt != "Enter the name" || mgr.Step(42) != stepName {
		t.Fatalf("back: %+v, step %q", res, mgr.Step(42))
	}

	res, err = eng.Handle(ctx, 42, Input{Text: "cancel"})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Cancelled {
		t.Fatalf("expected cancel, got %+v", res)
	}
	if mgr.InProgress(42) {
		t.Fatal("state kept after cancel")
	}
}

func TestFormEditSentinelCopiesStoredValue(t *testing.T) {
	ctx := context.Background()
	mgr := state.NewMemoryManager()
	eng := NewEngine(mgr, testForm())

	if _, err := eng.StartEdit(42, 7); err != nil {
		t.Fatal(err)
	}

	res, err := eng.Handle(ctx, 42, Input{Text: "."})
	if err != nil {
		t.Fatal(err)
	}
	if res.Invalid {
		t.Fatalf("sentinel rejected: %+v", res)
	}
	if mgr.FieldString(42, "name") != "stored-name-7" {
		t.Fatalf("name = %q, want stored value", mgr.FieldString(42, "name"))
	}

	_, _ = eng.Handle(ctx, 42, Input{Text: "."})
	res, _ = eng.Handle(ctx, 42, Input{Text: "."})
	if !res.Done {
		t.Fatalf("edit walkthrough not done: %+v", res)
	}
	if res.Fields["image"] != "stored-photo" {
		t.Fatalf("image = %v", res.Fields["image"])
	}
	if editID, ok := res.Fields[EditIDField]; !ok || editID != int64(7) {
		t.Fatalf("edit id = %v (%v)", editID, ok)
	}
}

func TestFormSentinelIsPlainInputOutsideEdit(t *testing.T) {
	ctx := context.Background()
	mgr := state.NewMemoryManager()
	eng := NewEngine(mgr, testForm())

	_, _ = eng.Start(42)
	res, err := eng.Handle(ctx, 42, Input{Text: "."})
	if err != nil {
		t.Fatal(err)
	}
	// "." fails the name length validation like any other short input.
	if !res.Invalid {
		t.Fatalf("sentinel accepted outside edit mode: %+v", res)
	}
}
