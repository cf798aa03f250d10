// Package extension runs registered invoice extensions at the three
// export lifecycle points: before export, before signing and after
// signing.
package extension

import (
	"github.com/rezonia/facturae/internal/model"
)

// Dispatcher invokes extensions in registration order. Each hook's
// output is the input to the next.
type Dispatcher struct {
	exts []model.Extension
}

// NewDispatcher creates a dispatcher over the given extensions.
func NewDispatcher(exts []model.Extension) *Dispatcher {
	return &Dispatcher{exts: exts}
}

// BeforeExport lets extensions mutate the invoice before assembly.
func (d *Dispatcher) BeforeExport(inv *model.Invoice) error {
	for _, ext := range d.exts {
		if err := ext.OnBeforeExport(inv); err != nil {
			return err
		}
	}
	return nil
}

// BeforeSign lets extensions rewrite the assembled XML before the
// signer runs.
func (d *Dispatcher) BeforeSign(xmlText string) (string, error) {
	for _, ext := range d.exts {
		out, err := ext.OnBeforeSign(xmlText)
		if err != nil {
			return "", err
		}
		xmlText = out
	}
	return xmlText, nil
}

// AfterSign lets extensions rewrite the signed XML.
func (d *Dispatcher) AfterSign(xmlText string) (string, error) {
	for _, ext := range d.exts {
		out, err := ext.OnAfterSign(xmlText)
		if err != nil {
			return "", err
		}
		xmlText = out
	}
	return xmlText, nil
}

// AdditionalData collects the non-empty AdditionalData fragments in
// registration order.
func (d *Dispatcher) AdditionalData() ([]string, error) {
	var fragments []string
	for _, ext := range d.exts {
		frag, err := ext.AdditionalData()
		if err != nil {
			return nil, err
		}
		if frag != "" {
			fragments = append(fragments, frag)
		}
	}
	return fragments, nil
}

// Base is a no-op extension to embed when only some hooks are needed.
type Base struct{}

func (Base) OnBeforeExport(*model.Invoice) error { return nil }

func (Base) OnBeforeSign(xmlText string) (string, error) { return xmlText, nil }

func (Base) OnAfterSign(xmlText string) (string, error) { return xmlText, nil }

func (Base) AdditionalData() (string, error) { return "", nil }
