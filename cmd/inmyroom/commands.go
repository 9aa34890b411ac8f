/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"inmyroom/internal/domain"
	"inmyroom/internal/editor"
	"inmyroom/internal/export"
	"inmyroom/internal/manip"
	"inmyroom/internal/server"
	"inmyroom/internal/ui"
	"inmyroom/internal/vector"
)

type roomCommand func(ctx context.Context, s *session, args []string) error

var roomCommands = map[string]roomCommand{
	"show":       cmdShow,
	"place":      cmdPlace,
	"move":       cmdMove,
	"forward":    itemAction((*editor.Editor).BringForward),
	"backward":   itemAction((*editor.Editor).SendBackward),
	"rotate":     cmdRotate,
	"resize":     cmdResize,
	"align":      cmdAlign,
	"nudge":      cmdNudge,
	"delete":     itemAction((*editor.Editor).DeleteSelected),
	"floor":      cmdFloor,
	"background": cmdBackground,
	"reset":      cmdReset,
	"backups":    cmdBackups,
	"restore":    cmdRestore,
	"export":     cmdExport,
	"serve":      cmdServe,
	"ui":         cmdUI,
}

func cmdCatalog() error {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tLABEL\tSIZE")
	for _, k := range domain.Catalog() {
		fmt.Fprintf(tw, "%s\t%s\t%gx%g\n", k.Kind, k.Label, k.Width, k.Height)
	}
	return tw.Flush()
}

func printRoom(w io.Writer, ed *editor.Editor) {
	b := ed.Bounds()
	fmt.Fprintf(w, "Room %gx%g, floor %gpx\n", b.Width, b.Height, b.FloorHeight)
	fmt.Fprintf(w, "Background: %s\n", ed.Background())
	fmt.Fprintf(w, "Floor: %s\n", ed.Floor())
	items := ed.Items()
	fmt.Fprintf(w, "Items: %d\n", len(items))
	if len(items) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tITEM\tLEFT\tTOP\tSIZE\tROTATION\tLAYER")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%g\t%g\t%gx%g\t%g\t%d\n", it.ID, it.Kind.Label(), it.X, it.Y, it.Width, it.Height, it.Rotation, it.Z)
	}
	_ = tw.Flush()
}

func printItem(it domain.Item) {
	fmt.Printf("%s %s at %g,%g size %gx%g rotation %g layer %d\n",
		it.ID, it.Kind.Label(), it.X, it.Y, it.Width, it.Height, it.Rotation, it.Z)
}

func cmdShow(_ context.Context, s *session, _ []string) error {
	s.readOnly = true
	printRoom(os.Stdout, s.ed)
	return nil
}

func parseFloats(args ...string) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, usageErr("%q is not a number", a)
		}
		out[i] = v
	}
	return out, nil
}

func cmdPlace(_ context.Context, s *session, args []string) error {
	if len(args) != 3 {
		return usageErr("place requires <kind> <x> <y>")
	}
	xy, err := parseFloats(args[1], args[2])
	if err != nil {
		return err
	}
	it, err := s.ed.Place(domain.Kind(args[0]), 0, 0, vector.Pt{X: xy[0], Y: xy[1]})
	if err != nil {
		return err
	}
	printItem(it)
	return nil
}

func cmdMove(_ context.Context, s *session, args []string) error {
	if len(args) != 3 {
		return usageErr("move requires <id> <x> <y>")
	}
	xy, err := parseFloats(args[1], args[2])
	if err != nil {
		return err
	}
	it, err := s.ed.MoveItem(args[0], xy[0], xy[1])
	if err != nil {
		return err
	}
	printItem(it)
	return nil
}

// selectFirst selects the item named by args[0].
func selectFirst(s *session, args []string, name string) error {
	if len(args) == 0 {
		return usageErr("%s requires an item id", name)
	}
	return s.ed.Select(args[0])
}

func itemAction(fn func(*editor.Editor) (domain.Item, error)) roomCommand {
	return func(_ context.Context, s *session, args []string) error {
		if err := selectFirst(s, args, "this command"); err != nil {
			return err
		}
		it, err := fn(s.ed)
		if err != nil {
			return err
		}
		printItem(it)
		return nil
	}
}

func cmdRotate(ctx context.Context, s *session, args []string) error {
	if len(args) != 2 {
		return usageErr("rotate requires <id> left|right")
	}
	switch args[1] {
	case "left":
		return itemAction((*editor.Editor).RotateLeft)(ctx, s, args)
	case "right":
		return itemAction((*editor.Editor).RotateRight)(ctx, s, args)
	}
	return usageErr("rotate direction must be left or right")
}

func cmdResize(ctx context.Context, s *session, args []string) error {
	if len(args) != 2 {
		return usageErr("resize requires <id> bigger|smaller")
	}
	switch args[1] {
	case "bigger":
		return itemAction((*editor.Editor).ResizeBigger)(ctx, s, args)
	case "smaller":
		return itemAction((*editor.Editor).ResizeSmaller)(ctx, s, args)
	}
	return usageErr("resize must be bigger or smaller")
}

func cmdAlign(ctx context.Context, s *session, args []string) error {
	if len(args) != 2 {
		return usageErr("align requires <id> <edge>")
	}
	edge, err := manip.ParseEdge(args[1])
	if err != nil {
		return err
	}
	return itemAction(func(ed *editor.Editor) (domain.Item, error) { return ed.Align(edge) })(ctx, s, args)
}

func cmdNudge(ctx context.Context, s *session, args []string) error {
	fs := flag.NewFlagSet("nudge", flag.ContinueOnError)
	fast := fs.Bool("fast", false, "move 10px per step")
	if err := fs.Parse(reorderFlags(args)); err != nil {
		return usageErr("%v", err)
	}
	rest := fs.Args()
	if len(rest) != 3 {
		return usageErr("nudge requires <id> <dx> <dy>")
	}
	d, err := parseFloats(rest[1], rest[2])
	if err != nil {
		return err
	}
	return itemAction(func(ed *editor.Editor) (domain.Item, error) {
		it, err := ed.Nudge(int(d[0]), int(d[1]), *fast)
		ed.EndNudge()
		if err != nil {
			return it, err
		}
		cur, _ := ed.Item(it.ID)
		return cur, nil
	})(ctx, s, rest)
}

// reorderFlags moves flags in front of positional arguments so that
// "nudge id 1 0 -fast" parses like "nudge -fast id 1 0". Negative numbers
// stay positional.
func reorderFlags(args []string) []string {
	var flags, pos []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		if strings.HasPrefix(a, "-") && len(a) > 1 && !isNumber(a) {
			flags = append(flags, a)
			continue
		}
		pos = append(pos, a)
	}
	return append(flags, pos...)
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func cmdFloor(ctx context.Context, s *session, args []string) error {
	fs := flag.NewFlagSet("floor", flag.ContinueOnError)
	img := fs.String("image", "", "image file to use as the floor")
	if err := fs.Parse(args); err != nil {
		return usageErr("%v", err)
	}
	switch {
	case *img != "":
		f, err := os.Open(*img)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := s.ed.UploadFloor(ctx, f); err != nil {
			return err
		}
	case fs.NArg() == 1:
		if err := s.ed.SetFloorPreset(fs.Arg(0)); err != nil {
			return fmt.Errorf("%w (presets: %s)", err, strings.Join(domain.FloorPresets(), ", "))
		}
	default:
		return usageErr("floor requires a preset or -image <file>")
	}
	fmt.Println("Floor:", s.ed.Floor())
	return nil
}

func cmdBackground(ctx context.Context, s *session, args []string) error {
	fs := flag.NewFlagSet("background", flag.ContinueOnError)
	img := fs.String("image", "", "image file to use as the background")
	if err := fs.Parse(args); err != nil {
		return usageErr("%v", err)
	}
	switch {
	case *img != "":
		f, err := os.Open(*img)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := s.ed.UploadBackground(ctx, f); err != nil {
			return err
		}
	case fs.NArg() == 1:
		c := fs.Arg(0)
		if c == "none" {
			c = ""
		}
		if err := s.ed.SetBackgroundColor(c); err != nil {
			return err
		}
	default:
		return usageErr("background requires a color, none, or -image <file>")
	}
	fmt.Println("Background:", s.ed.Background())
	return nil
}

func cmdReset(_ context.Context, s *session, _ []string) error {
	if err := s.ed.Reset(); err != nil {
		return err
	}
	fmt.Println("Room reset")
	return nil
}

func cmdBackups(ctx context.Context, s *session, _ []string) error {
	s.readOnly = true
	bs, err := s.ed.Backups(ctx)
	if err != nil {
		return err
	}
	if len(bs) == 0 {
		fmt.Println("No backups")
		return nil
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "N\tSAVED\tBYTES")
	for i, b := range bs {
		fmt.Fprintf(tw, "%d\t%s\t%d\n", i, b.SavedAt.Local().Format("2006-01-02 15:04:05"), len(b.Data))
	}
	return tw.Flush()
}

func cmdRestore(ctx context.Context, s *session, args []string) error {
	if len(args) != 1 {
		return usageErr("restore requires <n>")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return usageErr("%q is not a backup number", args[0])
	}
	if err := s.ed.RestoreBackup(ctx, n); err != nil {
		return err
	}
	printRoom(os.Stdout, s.ed)
	return nil
}

func cmdExport(ctx context.Context, s *session, args []string) error {
	s.readOnly = true
	format := ""
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		format, args = args[0], args[1:]
	}
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	out := fs.String("o", "", "output file (default: export dir)")
	labels := fs.Bool("labels", false, "draw item labels")
	clip := fs.Bool("clipboard", false, "copy the image to the clipboard")
	title := fs.String("title", "My room", "PDF title")
	preset := fs.String("preset", "", "export preset: web or print")
	formats := fs.String("formats", "", "comma separated formats for -preset")
	if err := fs.Parse(args); err != nil {
		return usageErr("%v", err)
	}

	switch {
	case *preset != "":
		p, err := export.ParsePreset(*preset)
		if err != nil {
			return err
		}
		opt := export.BatchOptions{Preset: p, Title: *title}
		if *formats != "" {
			opt.Formats = strings.Split(*formats, ",")
		}
		if isFlagSet(fs, "labels") {
			opt.Labels = labels
		}
		paths, err := s.ed.ExportBatch(ctx, opt)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Println("Wrote", p)
		}
		return nil
	case format == "pdf":
		return writeOut(*out, "pdf", s, func(w io.Writer) error { return s.ed.WritePDF(w, *title) })
	case format == "png" && *clip:
		d, err := s.ed.Capture(ctx, true)
		if err != nil {
			return err
		}
		if d.Clipboard {
			fmt.Println("Image copied to clipboard")
		} else {
			fmt.Println("Clipboard unavailable; image written to", d.Path)
		}
		return nil
	case format == "png" || format == "":
		return writeOut(*out, "png", s, func(w io.Writer) error {
			data, err := s.ed.RenderPNG(ctx, *labels)
			if err != nil {
				return err
			}
			_, err = w.Write(data)
			return err
		})
	}
	return usageErr("unknown export format %q", format)
}

func isFlagSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// writeOut writes to path, or to a timestamped file in the export dir.
func writeOut(path, ext string, s *session, fn func(io.Writer) error) error {
	if path == "" {
		var buf bytes.Buffer
		if err := fn(&buf); err != nil {
			return err
		}
		p, err := export.SaveDownload(s.ed.Options().ExportDir, buf.Bytes(), s.ed.Options().Now().UTC(), "."+ext)
		if err != nil {
			return err
		}
		fmt.Println("Wrote", p)
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Println("Wrote", path)
	return nil
}

func cmdServe(ctx context.Context, s *session, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", s.cfg.Server.Addr, "listen address")
	if err := fs.Parse(args); err != nil {
		return usageErr("%v", err)
	}
	srv := server.New(s.ed, server.OptionsFromConfig(s.cfg.Server, os.Getenv(server.EnvToken)))
	fmt.Println("Serving InMyRoom API on", *addr)
	return srv.Serve(ctx, *addr)
}

func cmdUI(_ context.Context, s *session, _ []string) error {
	return ui.Run(s.ed)
}
