// Command qrtool encodes text into a QR code image, or decodes a QR code
// out of an image file.
package main

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/pborman/getopt/v2"

	qr "github.com/sadernalwis/qrcode"
	"github.com/sadernalwis/qrcode/binarizer"
	"github.com/sadernalwis/qrcode/qrcode"
	"github.com/sadernalwis/qrcode/qrcode/decoder"
	"github.com/sadernalwis/qrcode/qrcode/encoder"
	"github.com/sadernalwis/qrcode/render"
)

var g = struct {
	decode  bool
	level   string
	version int
	mask    int
	scale   int
	margin  int
	format  string
	out     string
}{
	level: "L",
	mask:  -1,
	scale: 8,
}

func parseFlags() []string {
	getopt.FlagLong(&g.decode, "decode", 'd', "decode a QR code from the named image file")
	getopt.FlagLong(&g.level, "level", 'l', "error correction level: L, M, Q, or H", "L|M|Q|H")
	getopt.FlagLong(&g.version, "version", 'v', "QR version to force (1-40); 0 picks the smallest that fits", "ver")
	getopt.FlagLong(&g.mask, "mask", 'k', "mask pattern to force (0-7); -1 picks the lowest-penalty mask", "mask")
	getopt.FlagLong(&g.scale, "scale", 's', "pixels per module", "scale")
	getopt.FlagLong(&g.margin, "margin", 'm', "quiet zone width in modules", "margin")
	getopt.FlagLong(&g.format, "type", 't', "output format: png, gif, svg, or pdf", "fmt")
	getopt.FlagLong(&g.out, "output", 'o', `output file, or "-" for standard output`, "file")
	getopt.Parse()
	return getopt.Args()
}

func main() {
	log.SetFlags(0)
	args := parseFlags()

	if g.decode {
		if len(args) != 1 {
			fmt.Fprintln(os.Stderr, "decode mode takes exactly one image path")
			os.Exit(2)
		}
		if err := runDecode(args[0]); err != nil {
			log.Fatalln(err)
		}
		return
	}

	var text string
	if len(args) != 0 {
		text = strings.Join(args, " ")
	} else {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			log.Fatalln(err)
		}
		text = strings.TrimSuffix(string(b), "\n")
	}
	if err := runEncode(text); err != nil {
		log.Fatalln(err)
	}
}

func runEncode(text string) error {
	ecLevel, err := ecLevelForName(strings.ToUpper(g.level))
	if err != nil {
		return err
	}
	code, err := encoder.Encode(text, ecLevel, g.version, g.mask)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	bits := code.ToBitMatrix()

	renderOpts := render.Options{Scale: g.scale, Margin: g.margin}

	format := g.format
	if format == "" {
		if g.out == "" && isatty.IsTerminal(os.Stdout.Fd()) {
			format = "utf8"
		} else {
			format = "png"
		}
	}

	var data []byte
	switch format {
	case "png":
		data, err = render.PNG(bits, renderOpts)
	case "gif":
		data, err = render.GIF(bits, renderOpts)
	case "svg":
		data, err = render.SVG(bits, renderOpts)
	case "pdf":
		data, err = render.PDF(bits, renderOpts)
	case "utf8":
		return writeUTF8(bits)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
	if err != nil {
		return err
	}
	return writeOutput(data)
}

// writeUTF8 prints the module matrix as text, one line per module row and
// two characters per module ("##" dark, two spaces light): the preview a TTY
// gets with no -o or -t flag.
func writeUTF8(bits interface {
	Width() int
	Height() int
	Get(x, y int) bool
}) error {
	var sb strings.Builder
	for y := 0; y < bits.Height(); y++ {
		for x := 0; x < bits.Width(); x++ {
			if bits.Get(x, y) {
				sb.WriteString("##")
			} else {
				sb.WriteString("  ")
			}
		}
		sb.WriteByte('\n')
	}
	_, err := io.WriteString(os.Stdout, sb.String())
	return err
}

func ecLevelForName(name string) (decoder.ErrorCorrectionLevel, error) {
	switch name {
	case "L":
		return decoder.ECLevelL, nil
	case "M":
		return decoder.ECLevelM, nil
	case "Q":
		return decoder.ECLevelQ, nil
	case "H":
		return decoder.ECLevelH, nil
	}
	return 0, fmt.Errorf("unknown error correction level: %s", name)
}

func writeOutput(data []byte) error {
	if g.out == "" || g.out == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(g.out, data, 0o644)
}

func runDecode(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}

	source := qr.NewImageLuminanceSource(img)
	bitmap := qr.NewBinaryBitmap(binarizer.NewHybrid(source))

	reader := qrcode.NewReader()
	result, err := reader.Decode(bitmap, &qr.DecodeOptions{})
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	fmt.Println(result.Text)
	for _, c := range result.Chunks {
		fmt.Printf("  [%s] %q\n", c.Mode, c.Text)
	}
	return nil
}
