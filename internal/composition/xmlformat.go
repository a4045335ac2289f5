package composition

import (
	"encoding/xml"
	"fmt"

	"github.com/google/uuid"
)

// The XML shapes below describe a root Composition element carrying
// identity/grid attributes, versionInfo, CompositionInfo, a Master
// Params block, repeated Layer blocks, and a Clips block. This is
// stdlib encoding/xml end to end.

type xmlDoc struct {
	XMLName     xml.Name        `xml:"Composition"`
	Name        string          `xml:"name,attr"`
	UniqueID    string          `xml:"uniqueId,attr"`
	NumLayers   int             `xml:"numLayers,attr"`
	NumColumns  int             `xml:"numColumns,attr"`
	VersionInfo xmlVersionInfo  `xml:"versionInfo"`
	Info        xmlCompInfo     `xml:"CompositionInfo"`
	Master      xmlParams       `xml:"Params"`
	Layers      []xmlLayer      `xml:"Layer"`
	Clips       xmlClipsSection `xml:"Clips"`
}

type xmlVersionInfo struct {
	Name  string `xml:"name,attr"`
	Major int    `xml:"majorVersion,attr"`
	Minor int    `xml:"minorVersion,attr"`
	Micro int    `xml:"microVersion,attr"`
}

type xmlCompInfo struct {
	Name        string       `xml:"name"`
	Description string       `xml:"description"`
	Width       int          `xml:"width"`
	Height      int          `xml:"height"`
	FPS         float64      `xml:"fps"`
	Background  xmlColorAttr `xml:"BackgroundColor"`
}

type xmlColorAttr struct {
	R float64 `xml:"r,attr"`
	G float64 `xml:"g,attr"`
	B float64 `xml:"b,attr"`
	A float64 `xml:"a,attr"`
}

type xmlParam struct {
	Name  string `xml:"name,attr"`
	Type  string `xml:"type,attr"`
	Value string `xml:"value,attr"`
}

type xmlParams struct {
	Name   string     `xml:"name,attr"`
	Params []xmlParam `xml:"Param"`
}

func (p xmlParams) get(name string) (string, bool) {
	for _, pm := range p.Params {
		if pm.Name == name {
			return pm.Value, true
		}
	}
	return "", false
}

type xmlLayer struct {
	Name         string        `xml:"name,attr"`
	UniqueID     string        `xml:"uniqueId,attr"`
	LayerIndex   int           `xml:"layerIndex,attr"`
	Params       xmlParams     `xml:"Params"`
	Transform    xmlTransform  `xml:"Transform"`
	ActiveColumn *int          `xml:"ActiveColumn"`
}

type xmlTransform struct {
	Position xmlVec2 `xml:"Position"`
	Scale    xmlVec2 `xml:"Scale"`
	Rotation float64 `xml:"Rotation"`
	Anchor   xmlVec2 `xml:"Anchor"`
}

type xmlVec2 struct {
	X float64 `xml:"x,attr"`
	Y float64 `xml:"y,attr"`
}

type xmlClipsSection struct {
	Clips []xmlClip `xml:"Clip"`
}

type xmlClip struct {
	Name        string  `xml:"name,attr"`
	UniqueID    string  `xml:"uniqueId,attr"`
	LayerIndex  int     `xml:"layerIndex,attr"`
	ColumnIndex int     `xml:"columnIndex,attr"`
	Type        string  `xml:"type,attr"`
	Path        string  `xml:"Path,omitempty"`
	Duration    float64 `xml:"Duration,omitempty"`
	Width       int     `xml:"Dimensions>Width,omitempty"`
	Height      int     `xml:"Dimensions>Height,omitempty"`
	FrameRate   float64 `xml:"FrameRate,omitempty"`
	LoopMode    string  `xml:"LoopMode,omitempty"`
	GenType     string  `xml:"GenType,omitempty"`
	GenSpeed    float64 `xml:"Speed,omitempty"`
	ColorR      float64 `xml:"Color>r,omitempty"`
	ColorG      float64 `xml:"Color>g,omitempty"`
	ColorB      float64 `xml:"Color>b,omitempty"`
	ColorA      float64 `xml:"Color>a,omitempty"`
}

func blendModeName(b BlendMode) string { return b.String() }

func parseBlendMode(s string) BlendMode {
	switch s {
	case "Add":
		return BlendAdd
	case "Multiply":
		return BlendMultiply
	case "Screen":
		return BlendScreen
	case "Overlay":
		return BlendOverlay
	default:
		return BlendNormal
	}
}

func loopModeName(m LoopMode) string {
	switch m {
	case LoopLoop:
		return "Loop"
	case LoopPingPong:
		return "PingPong"
	default:
		return "None"
	}
}

func parseLoopMode(s string) LoopMode {
	switch s {
	case "Loop":
		return LoopLoop
	case "PingPong":
		return LoopPingPong
	default:
		return LoopNone
	}
}

func clipKindName(k ClipKind) string {
	switch k {
	case ClipVideo:
		return "Video"
	case ClipImage:
		return "Image"
	case ClipSolidColor:
		return "SolidColor"
	case ClipGenerator:
		return "Generator"
	default:
		return "Video"
	}
}

func generatorKindName(k GeneratorKind) string {
	switch k {
	case GeneratorGradient:
		return "Gradient"
	case GeneratorPlasma:
		return "Plasma"
	case GeneratorTestPattern:
		return "TestPattern"
	case GeneratorColorBars:
		return "ColorBars"
	default:
		return "Noise"
	}
}

func parseGeneratorKind(s string) GeneratorKind {
	switch s {
	case "Gradient":
		return GeneratorGradient
	case "Plasma":
		return GeneratorPlasma
	case "TestPattern":
		return GeneratorTestPattern
	case "ColorBars":
		return GeneratorColorBars
	default:
		return GeneratorNoise
	}
}

// ToXML serializes the composition to the project XML format. All
// string content passes through encoding/xml, which escapes
// &, <, >, ", ' automatically.
func ToXML(c *Composition) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc := xmlDoc{
		Name:       c.Name,
		UniqueID:   c.UniqueID.String(),
		NumLayers:  len(c.layers),
		NumColumns: c.columns,
		VersionInfo: xmlVersionInfo{
			Name: "immersive-server", Major: 1, Minor: 0, Micro: 0,
		},
		Info: xmlCompInfo{
			Name: c.Name, Width: c.Width, Height: c.Height, FPS: c.FPS,
			Background: xmlColorAttr{c.Background.R, c.Background.G, c.Background.B, c.Background.A},
		},
		Master: xmlParams{
			Name: "Master",
			Params: []xmlParam{
				{Name: "Opacity", Type: "float", Value: fmt.Sprintf("%g", c.MasterOpacity)},
				{Name: "Speed", Type: "float", Value: fmt.Sprintf("%g", c.MasterSpeed)},
			},
		},
	}

	for _, l := range c.layers {
		xl := xmlLayer{
			Name: l.Name, UniqueID: fmt.Sprintf("layer-%d", l.ID), LayerIndex: int(l.ID),
			Params: xmlParams{
				Name: "LayerParams",
				Params: []xmlParam{
					{Name: "Opacity", Type: "float", Value: fmt.Sprintf("%g", l.Opacity)},
					{Name: "BlendMode", Type: "enum", Value: blendModeName(l.Blend)},
					{Name: "Bypass", Type: "bool", Value: fmt.Sprintf("%t", l.Bypass)},
					{Name: "Solo", Type: "bool", Value: fmt.Sprintf("%t", l.Solo)},
					{Name: "Volume", Type: "float", Value: fmt.Sprintf("%g", l.Volume)},
				},
			},
			Transform: xmlTransform{
				Position: xmlVec2{l.Transform.PosX, l.Transform.PosY},
				Scale:    xmlVec2{l.Transform.ScaleX, l.Transform.ScaleY},
				Rotation: l.Transform.RotationRad,
				Anchor:   xmlVec2{l.Transform.AnchorX, l.Transform.AnchorY},
			},
		}
		if active, ok := l.ActiveColumn(); ok {
			xl.ActiveColumn = &active
		}
		doc.Layers = append(doc.Layers, xl)

		for ci, slot := range l.slots {
			if slot == nil || slot.Clip == nil {
				continue
			}
			doc.Clips.Clips = append(doc.Clips.Clips, clipToXML(l.ID, ci, slot))
		}
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, &CompositionError{Operation: "xml encode", Details: "marshal", Err: err}
	}
	return append([]byte(xml.Header), out...), nil
}

func clipToXML(layerID uint32, column int, slot *ClipSlot) xmlClip {
	clip := slot.Clip
	xc := xmlClip{
		Name: slot.Name, UniqueID: clip.UniqueID.String(),
		LayerIndex: int(layerID), ColumnIndex: column,
		Type: clipKindName(clip.Kind),
	}
	switch clip.Kind {
	case ClipVideo:
		xc.Path = clip.Path
		xc.Duration = clip.DurationS
		xc.Width, xc.Height = clip.Width, clip.Height
		xc.FrameRate = clip.FPS
		xc.LoopMode = loopModeName(clip.Loop)
	case ClipImage:
		xc.Path = clip.Path
		xc.Width, xc.Height = clip.Width, clip.Height
	case ClipSolidColor:
		xc.ColorR, xc.ColorG, xc.ColorB, xc.ColorA = clip.Color.R, clip.Color.G, clip.Color.B, clip.Color.A
	case ClipGenerator:
		xc.GenType = generatorKindName(clip.GeneratorKind)
		xc.GenSpeed = clip.Parameters["speed"]
	}
	return xc
}

// FromXML parses the project XML format back into a Composition. Layers
// and slots are created fresh in file order. The root numLayers
// attribute is informational only (the Layer elements are
// authoritative); numColumns sets every layer's slot count, and a Clip
// whose column index falls outside it is skipped.
func FromXML(data []byte) (*Composition, error) {
	var doc xmlDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, &CompositionError{Operation: "xml decode", Details: "unmarshal", Err: err}
	}

	c := New(doc.Info.Width, doc.Info.Height, doc.Info.FPS, doc.NumColumns)
	c.Name = doc.Name
	if id, err := uuid.Parse(doc.UniqueID); err == nil {
		c.UniqueID = id
	}
	c.Background = RGBA{doc.Info.Background.R, doc.Info.Background.G, doc.Info.Background.B, doc.Info.Background.A}
	if v, ok := doc.Master.get("Opacity"); ok {
		fmt.Sscanf(v, "%g", &c.MasterOpacity)
	}
	if v, ok := doc.Master.get("Speed"); ok {
		fmt.Sscanf(v, "%g", &c.MasterSpeed)
	}

	layerByIndex := make(map[int]*Layer)
	for _, xl := range doc.Layers {
		id := c.AddLayer(xl.Name)
		l := c.Layer(id)
		layerByIndex[xl.LayerIndex] = l
		if v, ok := xl.Params.get("Opacity"); ok {
			fmt.Sscanf(v, "%g", &l.Opacity)
		}
		if v, ok := xl.Params.get("BlendMode"); ok {
			l.Blend = parseBlendMode(v)
		}
		if v, ok := xl.Params.get("Bypass"); ok {
			fmt.Sscanf(v, "%t", &l.Bypass)
		}
		if v, ok := xl.Params.get("Solo"); ok {
			fmt.Sscanf(v, "%t", &l.Solo)
		}
		if v, ok := xl.Params.get("Volume"); ok {
			fmt.Sscanf(v, "%g", &l.Volume)
		}
		l.Transform = Transform2D{
			PosX: xl.Transform.Position.X, PosY: xl.Transform.Position.Y,
			ScaleX: xl.Transform.Scale.X, ScaleY: xl.Transform.Scale.Y,
			RotationRad: xl.Transform.Rotation,
			AnchorX:     xl.Transform.Anchor.X, AnchorY: xl.Transform.Anchor.Y,
		}
	}

	for _, xc := range doc.Clips.Clips {
		l := layerByIndex[xc.LayerIndex]
		if l == nil {
			continue
		}
		slot := l.Slot(xc.ColumnIndex)
		if slot == nil {
			continue
		}
		slot.Name = xc.Name
		clip := &Clip{Kind: clipKindFromName(xc.Type)}
		if id, err := uuid.Parse(xc.UniqueID); err == nil {
			clip.UniqueID = id
		} else {
			clip.UniqueID = uuid.New()
		}
		switch clip.Kind {
		case ClipVideo:
			clip.Path = xc.Path
			clip.DurationS = xc.Duration
			clip.Width, clip.Height = xc.Width, xc.Height
			clip.FPS = xc.FrameRate
			clip.Loop = parseLoopMode(xc.LoopMode)
		case ClipImage:
			clip.Path = xc.Path
			clip.Width, clip.Height = xc.Width, xc.Height
		case ClipSolidColor:
			clip.Color = RGBA{xc.ColorR, xc.ColorG, xc.ColorB, xc.ColorA}
		case ClipGenerator:
			clip.GeneratorKind = parseGeneratorKind(xc.GenType)
			clip.Parameters = map[string]float64{"speed": xc.GenSpeed}
		}
		slot.Clip = clip
	}

	return c, nil
}

func clipKindFromName(s string) ClipKind {
	switch s {
	case "Image":
		return ClipImage
	case "SolidColor":
		return ClipSolidColor
	case "Generator":
		return ClipGenerator
	default:
		return ClipVideo
	}
}
