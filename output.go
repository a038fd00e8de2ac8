package main

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

const FormatPhylip = "phylip"
const FormatFasta = "fasta"

// WritePhylip writes the alignment in sequential PHYLIP: a header line with
// the number of sequences and sites, then one "name  sequence" line per
// sequence.
func WritePhylip(a *Alignment, chars string, w io.Writer) {
	_, err := fmt.Fprintf(w, "%d %d\n", a.NumSeqs(), a.NumSites())
	Check(err)
	for seq := int64(0); seq < a.NumSeqs(); seq++ {
		_, err = fmt.Fprintf(w, "%s  %s\n", a.Names[seq], rowString(a, chars, seq))
		Check(err)
	}
}

func WriteFasta(a *Alignment, chars string, w io.Writer) {
	for seq := int64(0); seq < a.NumSeqs(); seq++ {
		_, err := fmt.Fprintf(w, ">%s\n%s\n", a.Names[seq], rowString(a, chars, seq))
		Check(err)
	}
}

func rowString(a *Alignment, chars string, seq int64) string {
	var sb strings.Builder
	for _, state := range a.Row(seq) {
		sb.WriteByte(chars[state])
	}
	return sb.String()
}

// AlignmentFileName builds the output filename for one dataset:
// <prefix>_<i>.phy or .fa, plus .gz when compressing.
func AlignmentFileName(prefix string, dataset int64, format string,
	compress bool) string {
	ext := ".phy"
	if format == FormatFasta {
		ext = ".fa"
	}
	name := fmt.Sprintf("%s_%d%s", prefix, dataset, ext)
	if compress {
		name += ".gz"
	}
	return name
}

func WriteAlignmentFile(a *Alignment, chars, format, path string,
	compress bool) {
	var buf bytes.Buffer
	switch format {
	case FormatPhylip:
		WritePhylip(a, chars, &buf)
	case FormatFasta:
		WriteFasta(a, chars, &buf)
	default:
		Check(fmt.Errorf("invalid output format: %s", format))
	}
	data := buf.Bytes()
	if compress {
		data = Zip(data)
	}
	WriteFile(path, data)
}

// ReadSequences reads named sequences from a FASTA or sequential PHYLIP file,
// gzipped or not. This is only used to fetch an ancestral sequence from an
// existing alignment, so it reads the whole file at once and doesn't try to
// be clever.
func ReadSequences(path string) ([]string, []string) {
	data := ReadFile(path)
	if len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b {
		data = Unzip(data)
	}
	text := strings.TrimSpace(string(data))
	if strings.HasPrefix(text, ">") {
		return readFasta(text)
	}
	return readPhylip(text)
}

func readFasta(text string) ([]string, []string) {
	var names, seqs []string
	var cur strings.Builder
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ">") {
			if len(names) > 0 {
				seqs = append(seqs, cur.String())
				cur.Reset()
			}
			names = append(names, strings.TrimSpace(line[1:]))
		} else {
			cur.WriteString(line)
		}
	}
	if len(names) == 0 {
		Check(fmt.Errorf("no sequences found in FASTA input"))
	}
	seqs = append(seqs, cur.String())
	return names, seqs
}

func readPhylip(text string) ([]string, []string) {
	lines := strings.Split(text, "\n")
	var numSeqs, numSites int64
	_, err := fmt.Sscanf(lines[0], "%d %d", &numSeqs, &numSites)
	Check(err)

	var names, seqs []string
	for _, line := range lines[1:] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			Check(fmt.Errorf("malformed PHYLIP line: %q", line))
		}
		names = append(names, fields[0])
		seqs = append(seqs, fields[1])
	}
	if int64(len(names)) != numSeqs {
		Check(fmt.Errorf("PHYLIP header says %d sequences, found %d",
			numSeqs, len(names)))
	}
	for _, s := range seqs {
		if int64(len(s)) != numSites {
			Check(fmt.Errorf("PHYLIP header says %d sites, found %d",
				numSites, len(s)))
		}
	}
	return names, seqs
}

// StatesFromString converts a character sequence into numerical states using
// the model's state characters. Case-insensitive for letters.
func StatesFromString(s string, chars string) []int64 {
	states := make([]int64, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' {
			c = c - 'a' + 'A'
		}
		idx := strings.IndexByte(chars, c)
		if idx < 0 {
			Check(fmt.Errorf("invalid state character %q at position %d", s[i], i))
		}
		states[i] = int64(idx)
	}
	return states
}
