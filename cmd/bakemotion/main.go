// Command bakemotion sums the root motion of keyframed clips into the motion
// catalog loaded at runtime.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/milk9111/motionwarp/bake"
	"github.com/milk9111/motionwarp/prefabs"
	"golang.design/x/clipboard"
	"gopkg.in/yaml.v3"
)

// precision is the number of decimals kept in baked vectors.
const precision = 6

func main() {
	in := flag.String("in", "brute.bake.yaml", "bake spec (embedded or under prefabs/)")
	out := flag.String("out", "", "catalog file to write; stdout when empty")
	rate := flag.Float64("rate", 0, "sample rate in frames per second; defaults to the bake file's frame_rate")
	copyOut := flag.Bool("copy", false, "also copy the catalog to the clipboard")
	verbose := flag.Bool("v", false, "log every baked motion")
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "bakemotion"})
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	spec, err := prefabs.LoadBakeSpec(*in)
	if err != nil {
		logger.Fatal("load bake spec", "err", err)
	}
	if *rate <= 0 {
		*rate = spec.FrameRate
	}

	baker, err := bake.NewBaker(*rate, bake.WithLogger(logger))
	if err != nil {
		logger.Fatal("baker", "err", err)
	}
	catalog, err := baker.BakeCatalog(spec, nil)
	if err != nil {
		logger.Fatal("bake", "err", err)
	}
	hits, entries := baker.Stats()
	logger.Info("baked", "catalog", catalog.Name(), "motions", catalog.Len(), "sums", entries, "cache_hits", hits)

	data, err := render(catalog.ToSpec(*rate), filepath.Base(*in))
	if err != nil {
		logger.Fatal("render", "err", err)
	}

	if *out == "" {
		_, _ = os.Stdout.Write(data)
	} else if err := os.WriteFile(*out, data, 0o644); err != nil {
		logger.Fatal("write", "file", *out, "err", err)
	} else {
		logger.Info("wrote", "file", *out)
	}

	if *copyOut {
		if err := clipboard.Init(); err != nil {
			logger.Error("clipboard unavailable", "err", err)
			return
		}
		clipboard.Write(clipboard.FmtText, data)
		logger.Info("copied catalog to clipboard")
	}
}

func render(spec *prefabs.MotionCatalogSpec, source string) ([]byte, error) {
	for i := range spec.Motions {
		m := &spec.Motions[i]
		m.RootMotion = round(m.RootMotion)
		if w := m.WarpWindow; w != nil {
			w.MotionUntilStart = round(w.MotionUntilStart)
			w.MotionInside = round(w.MotionInside)
		}
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# Generated by cmd/bakemotion from %s.\n", source)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(spec); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func round(v prefabs.Vec3Spec) prefabs.Vec3Spec {
	scale := math.Pow(10, precision)
	for i := range v {
		v[i] = math.Round(v[i]*scale) / scale
		if v[i] == 0 {
			v[i] = 0 // drop negative zero
		}
	}
	return v
}
