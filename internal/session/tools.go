package session

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/maauso/mediamanip/internal/audio"
	"github.com/maauso/mediamanip/internal/filetype"
	"github.com/maauso/mediamanip/internal/raster"
	"github.com/maauso/mediamanip/internal/text"
)

// ParamKind tells a shell how to prompt for a parameter.
type ParamKind string

const (
	KindText   ParamKind = "text"
	KindInt    ParamKind = "int"
	KindNumber ParamKind = "number"
	KindPath   ParamKind = "path"
	KindDir    ParamKind = "dir"
)

// Param describes one argument of a tool.
type Param struct {
	Name    string
	Label   string
	Kind    ParamKind
	Default string
}

// Tool is one entry of a tool table.
type Tool struct {
	ID     string
	Label  string
	Params []Param
}

// Section groups tools under a heading.
type Section struct {
	Title string
	Tools []Tool
}

// Table is the tool list offered for the current document.
type Table struct {
	Type     filetype.Type
	Sections []Section
	// Notice explains why tools are missing, if any are.
	Notice string
}

// Find returns the tool with the given id.
func (t Table) Find(id string) (Tool, bool) {
	for _, sec := range t.Sections {
		for _, tool := range sec.Tools {
			if tool.ID == id {
				return tool, true
			}
		}
	}
	return Tool{}, false
}

// IDs lists the tool ids in display order.
func (t Table) IDs() []string {
	var ids []string
	for _, sec := range t.Sections {
		for _, tool := range sec.Tools {
			ids = append(ids, tool.ID)
		}
	}
	return ids
}

// need is the external capability a tool depends on.
type need int

const (
	needNothing need = iota
	needFFmpeg
	needVideo
	// needDecode is ffmpeg for every audio container except WAV.
	needDecode
)

type handler func(ctx context.Context, s *Session, d *Document, args map[string]string) (Outcome, error)

type toolDef struct {
	Tool
	// info tools stay listed whatever is missing.
	info     bool
	need     need
	defaults func(d *Document) map[string]string
	run      handler
}

type sectionDef struct {
	title string
	tools []toolDef
}

func destParam(label string) Param {
	return Param{Name: "dest", Label: label, Kind: KindPath}
}

func imageOp(id, label string, op raster.Op) toolDef {
	return toolDef{Tool: Tool{ID: id, Label: label}, run: runImageOp(op, label)}
}

func textOp(id, label string, t text.Transform) toolDef {
	return toolDef{Tool: Tool{ID: id, Label: label}, run: runTextTransform(t, label)}
}

func audioExport(f audio.Format) toolDef {
	return toolDef{
		Tool: Tool{
			ID:     "export_" + string(f),
			Label:  "Export as " + strings.ToUpper(string(f)),
			Params: []Param{destParam("Save as")},
		},
		need:     exportNeed(f),
		defaults: sibling("_export", "."+string(f)),
		run:      runAudioExport(f),
	}
}

func exportNeed(f audio.Format) need {
	if f == audio.FormatWAV {
		return needDecode
	}
	return needFFmpeg
}

// sibling proposes a path next to the document: <stem><suffix><ext>, where an
// empty ext keeps the document's own.
func sibling(suffix, ext string) func(d *Document) map[string]string {
	return func(d *Document) map[string]string {
		return map[string]string{"dest": siblingPath(d.Path, suffix, ext)}
	}
}

func siblingPath(path, suffix, ext string) string {
	own := filepath.Ext(path)
	if ext == "" {
		ext = own
	}
	return strings.TrimSuffix(path, own) + suffix + ext
}

var tables = map[filetype.Type][]sectionDef{
	filetype.Image: {
		{title: "Transform", tools: []toolDef{
			imageOp("rotate90", "Rotate 90°", raster.OpRotate90),
			imageOp("rotate180", "Rotate 180°", raster.OpRotate180),
			imageOp("flip_h", "Flip Horizontal", raster.OpFlipH),
			imageOp("flip_v", "Flip Vertical", raster.OpFlipV),
		}},
		{title: "Color", tools: []toolDef{
			imageOp("gray", "Grayscale", raster.OpGray),
			imageOp("invert", "Invert", raster.OpInvert),
			imageOp("sepia", "Sepia", raster.OpSepia),
			{
				Tool: Tool{ID: "brightness", Label: "Enhance Brightness", Params: []Param{
					{Name: "factor", Label: "Factor (0.1 to 3.0)", Kind: KindNumber, Default: "1.0"},
				}},
				run: runBrightness,
			},
			{
				Tool: Tool{ID: "contrast", Label: "Enhance Contrast", Params: []Param{
					{Name: "factor", Label: "Factor (0.1 to 3.0)", Kind: KindNumber, Default: "1.0"},
				}},
				run: runContrast,
			},
		}},
		{title: "Filters", tools: []toolDef{
			imageOp("blur", "Blur", raster.OpBlur),
			imageOp("sharpen", "Sharpen", raster.OpSharpen),
			imageOp("edges", "Edge Detect", raster.OpEdges),
			imageOp("emboss", "Emboss", raster.OpEmboss),
		}},
		{title: "Export", tools: []toolDef{
			{
				Tool: Tool{ID: "resize", Label: "Resize", Params: []Param{
					{Name: "width", Label: "Width", Kind: KindInt},
					{Name: "height", Label: "Height", Kind: KindInt},
				}},
				defaults: currentSize,
				run:      runResize,
			},
			{
				Tool:     Tool{ID: "save", Label: "Save As", Params: []Param{destParam("Save as")}},
				defaults: sibling("_edited", ""),
				run:      runImageSave,
			},
			{Tool: Tool{ID: "reset", Label: "Reset to Original"}, run: runImageReset},
			{Tool: Tool{ID: "info", Label: "File Info"}, info: true, run: runImageInfo},
		}},
	},
	filetype.Audio: {
		{title: "Info", tools: []toolDef{
			{Tool: Tool{ID: "info", Label: "Show Info"}, info: true, run: runAudioInfo},
		}},
		{title: "Edit", tools: []toolDef{
			{
				Tool: Tool{ID: "trim", Label: "Trim (start/end)", Params: []Param{
					{Name: "start", Label: "Start (s)", Kind: KindNumber, Default: "0"},
					{Name: "end", Label: "End (s)", Kind: KindNumber},
					destParam("Save as"),
				}},
				need:     needDecode,
				defaults: trimDefaults,
				run:      runAudioTrim,
			},
			{
				Tool: Tool{ID: "volume", Label: "Change Volume", Params: []Param{
					{Name: "db", Label: "dB change (-20 to +20)", Kind: KindNumber, Default: "0"},
					destParam("Save as"),
				}},
				need:     needDecode,
				defaults: sibling("_volume", ".wav"),
				run:      runAudioVolume,
			},
			{
				Tool:     Tool{ID: "reverse", Label: "Reverse Audio", Params: []Param{destParam("Save as")}},
				need:     needDecode,
				defaults: sibling("_reversed", ".wav"),
				run:      runAudioReverse,
			},
		}},
		{title: "Export", tools: []toolDef{
			audioExport(audio.FormatWAV),
			audioExport(audio.FormatMP3),
			audioExport(audio.FormatOGG),
		}},
	},
	filetype.Video: {
		{title: "Info", tools: []toolDef{
			{Tool: Tool{ID: "info", Label: "Show Info"}, info: true, run: runVideoInfo},
		}},
		{title: "Extract", tools: []toolDef{
			{
				Tool: Tool{ID: "extract_frame", Label: "Extract Frame at", Params: []Param{
					{Name: "index", Label: "Frame index", Kind: KindInt, Default: "0"},
					destParam("Save as"),
				}},
				need:     needVideo,
				defaults: sibling("_frame", ".png"),
				run:      runExtractFrame,
			},
			{
				Tool:     Tool{ID: "extract_all", Label: "Extract All Frames", Params: []Param{{Name: "dir", Label: "Output folder", Kind: KindDir}}},
				need:     needVideo,
				defaults: framesDir,
				run:      runExtractAll,
			},
		}},
		{title: "Analysis", tools: []toolDef{
			{Tool: Tool{ID: "histogram", Label: "Show Histogram (frame)"}, need: needFFmpeg, run: runHistogram},
		}},
	},
	filetype.Text: {
		{title: "Analyse", tools: []toolDef{
			{Tool: Tool{ID: "count", Label: "Word / Line Count"}, info: true, run: runTextCount},
			{Tool: Tool{ID: "frequency", Label: "Character Frequency"}, info: true, run: runTextFrequency},
		}},
		{title: "Edit", tools: []toolDef{
			{
				Tool: Tool{ID: "replace", Label: "Find & Replace", Params: []Param{
					{Name: "find", Label: "Find", Kind: KindText},
					{Name: "replace", Label: "Replace", Kind: KindText},
				}},
				run: runTextReplace,
			},
			textOp("upper", "To UPPERCASE", text.TransformUpper),
			textOp("lower", "To lowercase", text.TransformLower),
			textOp("rev_lines", "Reverse Lines", text.TransformRevLines),
			textOp("sort", "Sort Lines A-Z", text.TransformSort),
			textOp("rm_blank", "Remove Blank Lines", text.TransformRemoveBlank),
		}},
		{title: "Export", tools: []toolDef{
			{
				Tool:     Tool{ID: "save", Label: "Save As", Params: []Param{destParam("Save as")}},
				defaults: sibling("_edited", ""),
				run:      runTextSave,
			},
		}},
	},
	filetype.Unknown: {
		{title: "File Info", tools: []toolDef{
			{Tool: Tool{ID: "info", Label: "Show File Info"}, info: true, run: runUnknownInfo},
		}},
	},
}

func lookup(t filetype.Type, id string) (toolDef, bool) {
	for _, sec := range tables[t] {
		for _, def := range sec.tools {
			if def.ID == id {
				return def, true
			}
		}
	}
	return toolDef{}, false
}

func currentSize(d *Document) map[string]string {
	if d.image == nil {
		return nil
	}
	b := d.image.Bounds()
	return map[string]string{
		"width":  fmt.Sprint(b.Dx()),
		"height": fmt.Sprint(b.Dy()),
	}
}

func trimDefaults(d *Document) map[string]string {
	m := map[string]string{"dest": siblingPath(d.Path, "_trimmed", ".wav")}
	if d.audioInfo != nil {
		m["end"] = fmt.Sprintf("%.2f", d.audioInfo.Duration.Seconds())
	}
	return m
}

func framesDir(d *Document) map[string]string {
	return map[string]string{"dir": strings.TrimSuffix(d.Path, filepath.Ext(d.Path)) + "_frames"}
}
