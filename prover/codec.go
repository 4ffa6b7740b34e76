package prover

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"
	"github.com/golang/snappy"
)

var (
	proofMagic    = [4]byte{'r', 'p', 'p', 1}
	settingsMagic = [4]byte{'r', 'p', 's', 1}
)

// ErrFormat is returned when a persisted artifact is not in the expected
// format.
var ErrFormat = errors.New("unrecognized artifact format")

// maxSection bounds a single section. The largest section, the proving key
// of a two-protocol score graph, stays well below a megabyte.
const maxSection = 1 << 28

// WriteTo writes the proof and its public witness. The layout is a magic
// header followed by two length-prefixed sections.
func (p *Proof) WriteTo(w io.Writer) (int64, error) {
	var proofBuf bytes.Buffer
	if _, err := p.proof.WriteTo(&proofBuf); err != nil {
		return 0, fmt.Errorf("encoding proof: %w", err)
	}
	public, err := p.public.MarshalBinary()
	if err != nil {
		return 0, fmt.Errorf("encoding public witness: %w", err)
	}
	cw := &countingWriter{w: w}
	if _, err := cw.Write(proofMagic[:]); err != nil {
		return cw.n, err
	}
	for _, section := range [][]byte{proofBuf.Bytes(), public} {
		if err := writeSection(cw, section); err != nil {
			return cw.n, err
		}
	}
	return cw.n, nil
}

// ReadProof reads a proof written by Proof.WriteTo.
func ReadProof(r io.Reader) (*Proof, error) {
	if err := readMagic(r, proofMagic); err != nil {
		return nil, err
	}
	proofBytes, err := readSection(r)
	if err != nil {
		return nil, fmt.Errorf("reading proof section: %w", err)
	}
	publicBytes, err := readSection(r)
	if err != nil {
		return nil, fmt.Errorf("reading public witness section: %w", err)
	}

	proof := groth16.NewProof(Curve)
	if _, err := proof.ReadFrom(bytes.NewReader(proofBytes)); err != nil {
		return nil, fmt.Errorf("decoding proof: %w", err)
	}
	public, err := witness.New(Curve.ScalarField())
	if err != nil {
		return nil, err
	}
	if err := public.UnmarshalBinary(publicBytes); err != nil {
		return nil, fmt.Errorf("decoding public witness: %w", err)
	}
	return &Proof{proof: proof, public: public}, nil
}

// WriteTo writes the constraint system, proving key and verifying key as
// length-prefixed sections inside a snappy stream.
func (s *Settings) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	if _, err := cw.Write(settingsMagic[:]); err != nil {
		return cw.n, err
	}
	sw := snappy.NewBufferedWriter(cw)
	sections := []struct {
		name string
		src  io.WriterTo
	}{
		{"constraint system", s.CS},
		{"proving key", s.PK},
		{"verifying key", s.VK},
	}
	var buf bytes.Buffer
	for _, sec := range sections {
		buf.Reset()
		if _, err := sec.src.WriteTo(&buf); err != nil {
			return cw.n, fmt.Errorf("encoding %s: %w", sec.name, err)
		}
		if err := writeSection(sw, buf.Bytes()); err != nil {
			return cw.n, fmt.Errorf("writing %s: %w", sec.name, err)
		}
	}
	if err := sw.Close(); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

// ReadSettings reads settings written by Settings.WriteTo.
func ReadSettings(r io.Reader) (*Settings, error) {
	if err := readMagic(r, settingsMagic); err != nil {
		return nil, err
	}
	sr := snappy.NewReader(r)
	st := &Settings{
		CS: groth16.NewCS(Curve),
		PK: groth16.NewProvingKey(Curve),
		VK: groth16.NewVerifyingKey(Curve),
	}
	sections := []struct {
		name string
		dst  io.ReaderFrom
	}{
		{"constraint system", st.CS},
		{"proving key", st.PK},
		{"verifying key", st.VK},
	}
	for _, sec := range sections {
		data, err := readSection(sr)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", sec.name, err)
		}
		if _, err := sec.dst.ReadFrom(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", sec.name, err)
		}
	}
	return st, nil
}

// LoadProof reads a proof from path.
func LoadProof(path string) (*Proof, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, err
	}
	defer f.Close()
	p, err := ReadProof(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// LoadSettings reads settings from path.
func LoadSettings(path string) (*Settings, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, err
	}
	defer f.Close()
	st, err := ReadSettings(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return st, nil
}

func writeSection(w io.Writer, data []byte) error {
	var size [8]byte
	binary.BigEndian.PutUint64(size[:], uint64(len(data)))
	if _, err := w.Write(size[:]); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

func readSection(r io.Reader) ([]byte, error) {
	var size [8]byte
	if _, err := io.ReadFull(r, size[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint64(size[:])
	if n > maxSection {
		return nil, fmt.Errorf("%w: section of %d bytes", ErrFormat, n)
	}
	// grow with the data actually present rather than the declared size
	data, err := io.ReadAll(io.LimitReader(r, int64(n)))
	if err != nil {
		return nil, err
	}
	if uint64(len(data)) != n {
		return nil, fmt.Errorf("%w: section truncated at %d of %d bytes", ErrFormat, len(data), n)
	}
	return data, nil
}

func readMagic(r io.Reader, want [4]byte) error {
	var got [4]byte
	if _, err := io.ReadFull(r, got[:]); err != nil {
		return fmt.Errorf("%w: %w", ErrFormat, err)
	}
	if got != want {
		return fmt.Errorf("%w: header %x", ErrFormat, got[:])
	}
	return nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
