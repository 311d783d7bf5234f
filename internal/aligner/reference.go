package aligner

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/looselab/readfish-go/internal/model"
)

// reference is a loaded FASTA reference: contig name -> sequence. Both
// built-in aligners share it; mappy_rs only adds a worker pool around the
// same per-read matching.
//
// This is a deliberately simplified stand-in for minimap2's index/seed-
// and-extend algorithm: no Go binding for minimap2 exists anywhere in the
// retrieved pack, so the match step here is an exact-substring scan
// against the loaded contigs rather than a real aligner. It preserves the
// plugin's actual contract (Align attaches alignment_data with contig,
// strand, r_st, r_en) so the decision engine downstream is exercised the
// same way a real aligner would exercise it.
type reference struct {
	contigs map[string]string
}

func loadReference(path string) (*reference, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open reference %s: %w", path, err)
	}
	defer f.Close()

	contigs := map[string]string{}
	var current string
	var b strings.Builder

	flush := func() {
		if current != "" {
			contigs[current] = b.String()
			b.Reset()
		}
	}

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, ">") {
			flush()
			current = strings.Fields(strings.TrimPrefix(line, ">"))[0]
			continue
		}
		b.WriteString(strings.TrimSpace(line))
	}
	flush()
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read reference %s: %w", path, err)
	}
	return &reference{contigs: contigs}, nil
}

// match finds the first exact occurrence of seq (forward or its reverse
// complement) in each contig, returning the matches as Alignments.
func (r *reference) match(seq string) []model.Alignment {
	if len(seq) == 0 {
		return nil
	}
	var out []model.Alignment
	upper := strings.ToUpper(seq)
	rc := reverseComplement(upper)

	for contig, bases := range r.contigs {
		if idx := strings.Index(bases, upper); idx >= 0 {
			out = append(out, model.Alignment{Contig: contig, Strand: model.StrandForward, RStart: idx, REnd: idx + len(upper), MappingQuality: 60})
		}
		if idx := strings.Index(bases, rc); idx >= 0 {
			out = append(out, model.Alignment{Contig: contig, Strand: model.StrandReverse, RStart: idx, REnd: idx + len(rc), MappingQuality: 60})
		}
	}
	return out
}

func reverseComplement(seq string) string {
	out := make([]byte, len(seq))
	for i := 0; i < len(seq); i++ {
		out[len(seq)-1-i] = complement(seq[i])
	}
	return string(out)
}

func complement(b byte) byte {
	switch b {
	case 'A':
		return 'T'
	case 'T':
		return 'A'
	case 'C':
		return 'G'
	case 'G':
		return 'C'
	default:
		return 'N'
	}
}
