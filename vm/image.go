package vm

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/lexem/pkg/bitlist"
	"github.com/chazu/lexem/pkg/interval"
)

// ---------------------------------------------------------------------------
// Heap image: canonical CBOR dump of the resolved heap
// ---------------------------------------------------------------------------

// cborEncMode uses canonical options so equal heaps encode to equal bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("vm: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Image is a flattened view of a heap: one entry per live position, as the
// current BigNode resolves it. It is a diagnostic dump, not a persistence
// format; decoding never produces a Heap.
type Image struct {
	HeapID       string      `cbor:"1,keyasint"`
	Depth        int         `cbor:"2,keyasint"`
	NextPosition int64       `cbor:"3,keyasint"`
	Cells        []ImageCell `cbor:"4,keyasint"`
}

// ImageCell is one live cell, sorted by position within an Image.
type ImageCell struct {
	Position int64      `cbor:"1,keyasint"`
	RefCount uint32     `cbor:"2,keyasint"`
	Value    ImageValue `cbor:"3,keyasint"`
}

// imageKindReference tags references, which have no Type.
const imageKindReference uint8 = 0xff

// ImageValue encodes one primitive. Kind is the primitive's Type, or 0xff
// for a reference; only the fields that kind uses are set.
type ImageValue struct {
	Kind      uint8                 `cbor:"1,keyasint"`
	Logic     bool                  `cbor:"2,keyasint,omitempty"`
	Integer   int64                 `cbor:"3,keyasint,omitempty"`
	Float     float64               `cbor:"4,keyasint,omitempty"`
	Text      string                `cbor:"5,keyasint,omitempty"`
	Ranges    [][2]int64            `cbor:"6,keyasint,omitempty"`
	Elements  []ImageValue          `cbor:"7,keyasint,omitempty"`
	Fields    map[string]ImageValue `cbor:"8,keyasint,omitempty"`
	Prototype *int64                `cbor:"9,keyasint,omitempty"`
	Signal    SignalType            `cbor:"10,keyasint,omitempty"`
	Payload   *ImageValue           `cbor:"11,keyasint,omitempty"`
}

// Image captures the heap's resolved view.
func (h *Heap) Image() *Image {
	h.sync.RLock()
	defer h.sync.RUnlock()

	img := &Image{
		HeapID:       h.id.String(),
		Depth:        h.current.depth,
		NextPosition: h.nextPosition,
	}
	h.forEachLive(func(pos int64, c *Cell) {
		img.Cells = append(img.Cells, ImageCell{
			Position: pos,
			RefCount: c.refs,
			Value:    imageValueOf(c.value),
		})
	})
	slices.SortFunc(img.Cells, func(a, b ImageCell) int { return cmp.Compare(a.Position, b.Position) })
	return img
}

// EncodeImage captures the heap's resolved view as canonical CBOR.
func (h *Heap) EncodeImage() ([]byte, error) {
	data, err := cborEncMode.Marshal(h.Image())
	if err != nil {
		log.Errorf("image: encode heap %s: %s", h.id, err)
		return nil, fmt.Errorf("vm: marshal image: %w", err)
	}
	return data, nil
}

// DecodeImage parses bytes produced by EncodeImage.
func DecodeImage(data []byte) (*Image, error) {
	var img Image
	if err := cbor.Unmarshal(data, &img); err != nil {
		return nil, fmt.Errorf("vm: unmarshal image: %w", err)
	}
	return &img, nil
}

func imageValueOf(p Primitive) ImageValue {
	if r, ok := p.(LxmReference); ok {
		return ImageValue{Kind: imageKindReference, Integer: r.position}
	}
	v := ImageValue{Kind: uint8(TypeOf(p))}
	switch x := p.(type) {
	case LxmLogic:
		v.Logic = bool(x)
	case LxmInteger:
		v.Integer = int64(x)
	case LxmFloat:
		v.Float = float64(x)
	case LxmString:
		v.Text = string(x)
	case LxmBitList:
		v.Text = x.Bits.String()
	case LxmInterval:
		for r := range x.Interval.Ranges() {
			v.Ranges = append(v.Ranges, [2]int64{r.From(), r.To()})
		}
	case *LxmList:
		v.Elements = make([]ImageValue, len(x.Elements))
		for i, e := range x.Elements {
			v.Elements[i] = imageValueOf(e)
		}
	case *LxmObject:
		v.Fields = imageFields(x.Fields)
		if x.Prototype != nil {
			pos := x.Prototype.position
			v.Prototype = &pos
		}
	case *LxmContext:
		v.Text = x.Name
		v.Fields = imageFields(x.Vars)
	case LxmSignal:
		v.Signal = x.Type
		if x.Payload != nil {
			payload := imageValueOf(x.Payload)
			v.Payload = &payload
		}
	}
	return v
}

func imageFields(fields map[string]Primitive) map[string]ImageValue {
	out := make(map[string]ImageValue, len(fields))
	for k, f := range fields {
		out[k] = imageValueOf(f)
	}
	return out
}

// Primitive rebuilds the primitive v encodes.
func (v ImageValue) Primitive() (Primitive, error) {
	if v.Kind == imageKindReference {
		return NewReference(v.Integer)
	}
	switch Type(v.Kind) {
	case TypeNil:
		return Nil, nil
	case TypeLogic:
		return LxmLogic(v.Logic), nil
	case TypeInteger:
		return LxmInteger(v.Integer), nil
	case TypeFloat:
		return LxmFloat(v.Float), nil
	case TypeString:
		return LxmString(v.Text), nil
	case TypeBitList:
		b, err := bitlist.Parse(v.Text)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrImageValue, err)
		}
		return NewBitList(b), nil
	case TypeInterval:
		ranges := make([]interval.Range, len(v.Ranges))
		for i, r := range v.Ranges {
			rng, err := interval.NewRange(r[0], r[1])
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrImageValue, err)
			}
			ranges[i] = rng
		}
		return NewInterval(interval.FromRanges(ranges...)), nil
	case TypeList:
		list := &LxmList{Elements: make([]Primitive, len(v.Elements))}
		for i, e := range v.Elements {
			p, err := e.Primitive()
			if err != nil {
				return nil, err
			}
			list.Elements[i] = p
		}
		return list, nil
	case TypeObject:
		fields, err := primitiveFields(v.Fields)
		if err != nil {
			return nil, err
		}
		obj := &LxmObject{Fields: fields}
		if v.Prototype != nil {
			proto, err := NewReference(*v.Prototype)
			if err != nil {
				return nil, err
			}
			obj.Prototype = &proto
		}
		return obj, nil
	case TypeContext:
		vars, err := primitiveFields(v.Fields)
		if err != nil {
			return nil, err
		}
		return &LxmContext{Name: v.Text, Vars: vars}, nil
	case TypeSignal:
		sig := LxmSignal{Type: v.Signal}
		if v.Payload != nil {
			p, err := v.Payload.Primitive()
			if err != nil {
				return nil, err
			}
			sig.Payload = p
		}
		return sig, nil
	default:
		return nil, fmt.Errorf("%w: kind %d", ErrImageValue, v.Kind)
	}
}

func primitiveFields(fields map[string]ImageValue) (map[string]Primitive, error) {
	out := make(map[string]Primitive, len(fields))
	for k, f := range fields {
		p, err := f.Primitive()
		if err != nil {
			return nil, err
		}
		out[k] = p
	}
	return out, nil
}
