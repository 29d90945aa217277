// Package book implements an opening book keyed by Position.BookHash.
// Files use the 16-byte record layout of the Polyglot book format, but
// the position keys are this engine's own, so books must be produced by
// this package (or anything else sharing the key schedule).
package book

import (
	"encoding/binary"
	"io"
	"math/rand"
	"os"
	"sort"

	"github.com/velara/skirmish/internal/board"
)

// Entry is a single book line: one move and its selection weight.
type Entry struct {
	Move   board.Move
	Weight uint16
}

// Book maps position keys to their weighted candidate moves.
type Book struct {
	entries map[uint64][]Entry
}

// New creates an empty book.
func New() *Book {
	return &Book{
		entries: make(map[uint64][]Entry),
	}
}

// Add records a candidate move for the keyed position.
func (b *Book) Add(key uint64, move board.Move, weight uint16) {
	b.entries[key] = append(b.entries[key], Entry{Move: move, Weight: weight})
}

// Load reads a book file.
func Load(filename string) (*Book, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return LoadReader(file)
}

// LoadReader reads a book from a reader. Record format:
//
//	8 bytes: position key (big-endian)
//	2 bytes: move (big-endian)
//	2 bytes: weight (big-endian)
//	4 bytes: learn data (ignored, written as zero)
func LoadReader(r io.Reader) (*Book, error) {
	book := New()

	var entry [16]byte
	for {
		_, err := io.ReadFull(r, entry[:])
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		key := binary.BigEndian.Uint64(entry[0:8])
		moveData := binary.BigEndian.Uint16(entry[8:10])
		weight := binary.BigEndian.Uint16(entry[10:12])

		move := decodeMove(moveData)
		if move != board.NoMove {
			book.entries[key] = append(book.entries[key], Entry{
				Move:   move,
				Weight: weight,
			})
		}
	}

	return book, nil
}

// Save writes the book to a file.
func (b *Book) Save(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return b.SaveWriter(file)
}

// SaveWriter writes all records in key order, so saving and reloading
// yields the same book.
func (b *Book) SaveWriter(w io.Writer) error {
	keys := make([]uint64, 0, len(b.entries))
	for key := range b.entries {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	var record [16]byte
	for _, key := range keys {
		for _, e := range b.entries[key] {
			binary.BigEndian.PutUint64(record[0:8], key)
			binary.BigEndian.PutUint16(record[8:10], encodeMove(e.Move))
			binary.BigEndian.PutUint16(record[10:12], e.Weight)
			binary.BigEndian.PutUint32(record[12:16], 0)
			if _, err := w.Write(record[:]); err != nil {
				return err
			}
		}
	}
	return nil
}

// decodeMove unpacks the wire move encoding:
//
//	bits 0-2 to file, 3-5 to rank, 6-8 from file, 9-11 from rank,
//	bits 12-14 promotion (0=none, 1=N, 2=B, 3=R, 4=Q)
//
// Castling arrives king-takes-rook and is converted to the king's
// two-square step.
func decodeMove(data uint16) board.Move {
	toFile := data & 7
	toRank := (data >> 3) & 7
	fromFile := (data >> 6) & 7
	fromRank := (data >> 9) & 7
	promo := (data >> 12) & 7

	from := board.NewSquare(int(fromFile), int(fromRank))
	to := board.NewSquare(int(toFile), int(toRank))

	if from == board.E1 && to == board.H1 {
		to = board.G1
	} else if from == board.E1 && to == board.A1 {
		to = board.C1
	} else if from == board.E8 && to == board.H8 {
		to = board.G8
	} else if from == board.E8 && to == board.A8 {
		to = board.C8
	}

	if promo > 0 {
		if promo > 4 {
			return board.NoMove
		}
		promoTypes := [5]board.PieceType{0, board.Knight, board.Bishop, board.Rook, board.Queen}
		return board.NewPromotion(from, to, promoTypes[promo])
	}

	return board.NewMove(from, to)
}

// encodeMove packs a move for the wire, castling back to
// king-takes-rook form.
func encodeMove(m board.Move) uint16 {
	from, to := m.From(), m.To()

	if m.IsCastle() {
		switch {
		case from == board.E1 && to == board.G1:
			to = board.H1
		case from == board.E1 && to == board.C1:
			to = board.A1
		case from == board.E8 && to == board.G8:
			to = board.H8
		case from == board.E8 && to == board.C8:
			to = board.A8
		}
	}

	data := uint16(to.File()) | uint16(to.Rank())<<3 |
		uint16(from.File())<<6 | uint16(from.Rank())<<9
	if m.IsPromotion() {
		data |= uint16(m.Promotion()-board.Knight+1) << 12
	}
	return data
}

// Probe looks up the position and returns a move by weighted random
// selection among the stored candidates. The second result is false
// when the book has nothing playable here.
func (b *Book) Probe(pos *board.Position) (board.Move, bool) {
	if b == nil {
		return board.NoMove, false
	}

	key := pos.BookHash()
	entries, ok := b.entries[key]
	if !ok || len(entries) == 0 {
		return board.NoMove, false
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Weight > entries[j].Weight
	})

	totalWeight := uint32(0)
	for _, e := range entries {
		totalWeight += uint32(e.Weight)
	}

	pick := entries[0].Move
	if totalWeight > 0 {
		r := rand.Uint32() % totalWeight
		cumulative := uint32(0)
		for _, e := range entries {
			cumulative += uint32(e.Weight)
			if r < cumulative {
				pick = e.Move
				break
			}
		}
	}

	m := verifyAndConvert(pos, pick)
	if m == board.NoMove {
		return board.NoMove, false
	}
	return m, true
}

// ProbeAll returns all book moves for the position, sorted by weight.
func (b *Book) ProbeAll(pos *board.Position) []Entry {
	if b == nil {
		return nil
	}

	entries, ok := b.entries[pos.BookHash()]
	if !ok {
		return nil
	}

	result := make([]Entry, len(entries))
	copy(result, entries)
	sort.Slice(result, func(i, j int) bool {
		return result[i].Weight > result[j].Weight
	})

	return result
}

// verifyAndConvert matches the stored move against the position's legal
// moves, picking up the correct flags (castling, en passant). A stored
// move with no legal counterpart yields NoMove.
func verifyAndConvert(pos *board.Position, move board.Move) board.Move {
	legalMoves := pos.LegalMoves()
	from := move.From()
	to := move.To()

	for i := 0; i < legalMoves.Len(); i++ {
		lm := legalMoves.Get(i)
		if lm.From() != from || lm.To() != to {
			continue
		}
		if move.IsPromotion() != lm.IsPromotion() {
			continue
		}
		if move.IsPromotion() && move.Promotion() != lm.Promotion() {
			continue
		}
		return lm
	}

	return board.NoMove
}

// Size returns the number of unique positions in the book.
func (b *Book) Size() int {
	if b == nil {
		return 0
	}
	return len(b.entries)
}
