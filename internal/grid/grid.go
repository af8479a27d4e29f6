package grid

import "fmt"

// ResourceGrid is one slot's worth of frequency-domain samples laid out as
// ports x symbols x subcarriers. Its storage belongs to the pool arena.
type ResourceGrid struct {
	nofPorts       int
	nofSymbols     int
	nofSubcarriers int
	data           []complex64
}

func newResourceGrid(data []complex64, nofPorts, nofSymbols, nofSubcarriers int) ResourceGrid {
	if len(data) != nofPorts*nofSymbols*nofSubcarriers {
		panic(fmt.Sprintf("grid storage %d does not match %dx%dx%d", len(data), nofPorts, nofSymbols, nofSubcarriers))
	}
	return ResourceGrid{
		nofPorts:       nofPorts,
		nofSymbols:     nofSymbols,
		nofSubcarriers: nofSubcarriers,
		data:           data,
	}
}

func (g *ResourceGrid) NofPorts() int { return g.nofPorts }
func (g *ResourceGrid) NofSymbols() int { return g.nofSymbols }
func (g *ResourceGrid) NofSubcarriers() int { return g.nofSubcarriers }

func (g *ResourceGrid) Reader() Reader { return Reader{g: g} }
func (g *ResourceGrid) Writer() Writer { return Writer{g: g} }

func (g *ResourceGrid) symbol(port, symbol int) []complex64 {
	if port < 0 || port >= g.nofPorts || symbol < 0 || symbol >= g.nofSymbols {
		panic(fmt.Sprintf("grid access port=%d symbol=%d out of %dx%d", port, symbol, g.nofPorts, g.nofSymbols))
	}
	off := (port*g.nofSymbols + symbol) * g.nofSubcarriers
	return g.data[off : off+g.nofSubcarriers : off+g.nofSubcarriers]
}

// Reader is a read-only view of a grid.
type Reader struct {
	g *ResourceGrid
}

func (r Reader) Get(port, symbol, subcarrier int) complex64 {
	return r.g.symbol(port, symbol)[subcarrier]
}

// Symbol copies one OFDM symbol into dst, growing it if needed.
func (r Reader) Symbol(port, symbol int, dst []complex64) []complex64 {
	return append(dst[:0], r.g.symbol(port, symbol)...)
}

// IsEmpty reports whether every sample of port is zero.
func (r Reader) IsEmpty(port int) bool {
	for s := 0; s < r.g.nofSymbols; s++ {
		for _, v := range r.g.symbol(port, s) {
			if v != 0 {
				return false
			}
		}
	}
	return true
}

type Writer struct {
	g *ResourceGrid
}

func (w Writer) Put(port, symbol, subcarrier int, v complex64) {
	w.g.symbol(port, symbol)[subcarrier] = v
}

// PutSymbol writes src starting at subcarrier 0.
func (w Writer) PutSymbol(port, symbol int, src []complex64) {
	dst := w.g.symbol(port, symbol)
	if len(src) > len(dst) {
		panic(fmt.Sprintf("symbol of %d samples does not fit %d subcarriers", len(src), len(dst)))
	}
	copy(dst, src)
}

// SymbolView exposes one symbol for in-place writes.
func (w Writer) SymbolView(port, symbol int) []complex64 {
	return w.g.symbol(port, symbol)
}

func (w Writer) SetAllZero() {
	clear(w.g.data)
}
