package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const backup = `<?xml version='1.0' encoding='UTF-8' standalone='yes' ?>
<smses count="3">
  <sms protocol="0" address="M-Money" date="1715351458724" body="You have received 2000 RWF from Jane Smith (*********013)." />
  <sms protocol="0" address="M-Money" date="1715351506754" body="TxId: 73214484437. Your payment of 1,000 RWF to Jane Smith 12845 has been completed." />
  <sms protocol="0" address="M-Money" date="1715369560245" />
</smses>`

func TestDecodePreservesOrder(t *testing.T) {
	msgs, err := Decode(strings.NewReader(backup))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if !strings.HasPrefix(msgs[0], "You have received") || !strings.HasPrefix(msgs[1], "TxId:") {
		t.Fatalf("order not preserved: %q", msgs)
	}
	if msgs[2] != "" {
		t.Fatalf("missing body should decode as empty, got %q", msgs[2])
	}
}

func TestDecodeNestedAndEmpty(t *testing.T) {
	msgs, err := Decode(strings.NewReader(`<smses><group><sms body="a"/></group><sms body="b"/></smses>`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if strings.Join(msgs, ",") != "a,b" {
		t.Fatalf("got %q", msgs)
	}

	msgs, err = Decode(strings.NewReader(`<smses count="0"/>`))
	if err != nil || len(msgs) != 0 {
		t.Fatalf("empty backup: %q, %v", msgs, err)
	}
}

func TestDecodeFormatErrors(t *testing.T) {
	cases := map[string]string{
		"malformed":    `<smses><sms body="a"></smses>`,
		"truncated":    `<smses><sms body="a"/>`,
		"empty":        ``,
		"text only":    `not xml at all`,
		"wrong root":   `<messages><sms body="a"/></messages>`,
		"bad encoding": `<?xml version="1.0" encoding="EBCDIC"?><smses/>`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(doc))
			var sfe *SourceFormatError
			if !errors.As(err, &sfe) {
				t.Fatalf("expected SourceFormatError, got %v", err)
			}
		})
	}

	_, err := Decode(strings.NewReader(""))
	if !errors.Is(err, ErrMissingRoot) {
		t.Fatalf("expected ErrMissingRoot, got %v", err)
	}
	_, err = Decode(strings.NewReader("<other/>"))
	if !errors.Is(err, ErrUnexpectedRoot) {
		t.Fatalf("expected ErrUnexpectedRoot, got %v", err)
	}
}

func TestLoadNamesSource(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.xml")
	bad := filepath.Join(dir, "bad.xml")
	if err := os.WriteFile(good, []byte(backup), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bad, []byte("<smses>"), 0o644); err != nil {
		t.Fatal(err)
	}

	msgs, err := Load(context.Background(), good)
	if err != nil || len(msgs) != 3 {
		t.Fatalf("Load good: %d msgs, %v", len(msgs), err)
	}

	_, err = Load(context.Background(), bad)
	var sfe *SourceFormatError
	if !errors.As(err, &sfe) || sfe.Source != bad {
		t.Fatalf("expected SourceFormatError naming %s, got %v", bad, err)
	}
}
