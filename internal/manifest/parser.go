package manifest

import (
	"errors"
	"fmt"
	"io"

	"github.com/born-ml/bundleshim/internal/wire"
)

// Parse decodes a Signatures record from protobuf wire-format bytes.
func Parse(data []byte) (Signatures, error) {
	sigs := Signatures{}
	d := wire.NewDecoder(data)
	for d.More() {
		fieldNum, wireType, err := d.ReadTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return Signatures{}, err
		}

		switch fieldNum {
		case 1: // default_signature
			sub, err := d.ReadBytes()
			if err != nil {
				return Signatures{}, err
			}
			sig, err := parseSignature(sub)
			if err != nil {
				return Signatures{}, fmt.Errorf("default signature: %w", err)
			}
			sigs.Default = sig
		case 2: // named_signatures map entry
			sub, err := d.ReadBytes()
			if err != nil {
				return Signatures{}, err
			}
			name, sig, err := parseNamedEntry(sub)
			if err != nil {
				return Signatures{}, fmt.Errorf("named signature: %w", err)
			}
			if sigs.Named == nil {
				sigs.Named = make(map[string]Signature)
			}
			sigs.Named[name] = sig
		default:
			if err := d.Skip(wireType); err != nil {
				return Signatures{}, err
			}
		}
	}
	return sigs, nil
}

// parseNamedEntry decodes one named_signatures map entry (key=1, value=2).
func parseNamedEntry(data []byte) (string, Signature, error) {
	var name string
	var sig Signature
	d := wire.NewDecoder(data)
	for d.More() {
		fieldNum, wireType, err := d.ReadTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return "", nil, err
		}

		switch fieldNum {
		case 1: // key
			name, err = d.ReadString()
		case 2: // value
			var sub []byte
			sub, err = d.ReadBytes()
			if err == nil {
				sig, err = parseSignature(sub)
			}
		default:
			err = d.Skip(wireType)
		}
		if err != nil {
			return "", nil, err
		}
	}
	return name, sig, nil
}

// parseSignature decodes a Signature message. The oneof fields are
// regression_signature=1, classification_signature=2, generic_signature=3;
// last one present wins, matching protobuf oneof semantics. A message with
// no recognized variant decodes to nil.
func parseSignature(data []byte) (Signature, error) {
	var sig Signature
	d := wire.NewDecoder(data)
	for d.More() {
		fieldNum, wireType, err := d.ReadTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}

		switch fieldNum {
		case 1: // regression_signature
			sub, err := d.ReadBytes()
			if err != nil {
				return nil, err
			}
			sig, err = parseRegression(sub)
			if err != nil {
				return nil, err
			}
		case 2: // classification_signature
			sub, err := d.ReadBytes()
			if err != nil {
				return nil, err
			}
			sig, err = parseClassification(sub)
			if err != nil {
				return nil, err
			}
		case 3: // generic_signature
			sub, err := d.ReadBytes()
			if err != nil {
				return nil, err
			}
			sig, err = parseGeneric(sub)
			if err != nil {
				return nil, err
			}
		default:
			if err := d.Skip(wireType); err != nil {
				return nil, err
			}
		}
	}
	return sig, nil
}

// parseRegression decodes a RegressionSignature (input=1, output=2).
func parseRegression(data []byte) (*RegressionSignature, error) {
	sig := &RegressionSignature{}
	d := wire.NewDecoder(data)
	for d.More() {
		fieldNum, wireType, err := d.ReadTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}

		switch fieldNum {
		case 1:
			sig.Input, err = readBinding(d)
		case 2:
			sig.Output, err = readBinding(d)
		default:
			err = d.Skip(wireType)
		}
		if err != nil {
			return nil, err
		}
	}
	return sig, nil
}

// parseClassification decodes a ClassificationSignature (input=1, classes=2, scores=3).
func parseClassification(data []byte) (*ClassificationSignature, error) {
	sig := &ClassificationSignature{}
	d := wire.NewDecoder(data)
	for d.More() {
		fieldNum, wireType, err := d.ReadTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}

		switch fieldNum {
		case 1:
			sig.Input, err = readBinding(d)
		case 2:
			sig.Classes, err = readBinding(d)
		case 3:
			sig.Scores, err = readBinding(d)
		default:
			err = d.Skip(wireType)
		}
		if err != nil {
			return nil, err
		}
	}
	return sig, nil
}

// parseGeneric decodes a GenericSignature (map=1, entries key=1 value=2).
func parseGeneric(data []byte) (*GenericSignature, error) {
	sig := &GenericSignature{Map: make(map[string]TensorBinding)}
	d := wire.NewDecoder(data)
	for d.More() {
		fieldNum, wireType, err := d.ReadTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}

		if fieldNum != 1 {
			if err := d.Skip(wireType); err != nil {
				return nil, err
			}
			continue
		}

		entry, err := d.ReadBytes()
		if err != nil {
			return nil, err
		}
		key, binding, err := parseBindingEntry(entry)
		if err != nil {
			return nil, err
		}
		sig.Map[key] = binding
	}
	return sig, nil
}

// parseBindingEntry decodes one generic map entry (key=1, value=2).
func parseBindingEntry(data []byte) (string, TensorBinding, error) {
	var key string
	var binding TensorBinding
	d := wire.NewDecoder(data)
	for d.More() {
		fieldNum, wireType, err := d.ReadTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return "", TensorBinding{}, err
		}

		switch fieldNum {
		case 1:
			key, err = d.ReadString()
		case 2:
			binding, err = readBinding(d)
		default:
			err = d.Skip(wireType)
		}
		if err != nil {
			return "", TensorBinding{}, err
		}
	}
	return key, binding, nil
}

// readBinding decodes a length-delimited TensorBinding (tensor_name=1).
func readBinding(d *wire.Decoder) (TensorBinding, error) {
	data, err := d.ReadBytes()
	if err != nil {
		return TensorBinding{}, err
	}
	binding := TensorBinding{}
	sub := wire.NewDecoder(data)
	for sub.More() {
		fieldNum, wireType, err := sub.ReadTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return TensorBinding{}, err
		}

		if fieldNum == 1 {
			binding.TensorName, err = sub.ReadString()
		} else {
			err = sub.Skip(wireType)
		}
		if err != nil {
			return TensorBinding{}, err
		}
	}
	return binding, nil
}
