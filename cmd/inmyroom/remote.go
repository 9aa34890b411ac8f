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
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"inmyroom/internal/client"
	"inmyroom/internal/server"
)

// cmdRemote drives a running server instead of the local store.
func cmdRemote(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usageErr("remote requires <url> <command>")
	}
	c := client.NewClient(args[0], os.Getenv(server.EnvToken))
	cmd, rest := args[1], args[2:]
	switch cmd {
	case "show":
		room, err := c.Room(ctx)
		if err != nil {
			return err
		}
		printRemoteRoom(room)
		return nil
	case "place":
		if len(rest) != 3 {
			return usageErr("place requires <kind> <x> <y>")
		}
		xy, err := parseFloats(rest[1], rest[2])
		if err != nil {
			return err
		}
		it, err := c.Place(ctx, rest[0], xy[0], xy[1])
		if err != nil {
			return err
		}
		fmt.Printf("%s %s at %g,%g\n", it.ID, it.Label, it.X, it.Y)
		return nil
	case "action", "align":
		if len(rest) < 1 {
			return usageErr("%s requires a name", cmd)
		}
		if len(rest) > 1 {
			if _, err := c.Select(ctx, rest[1]); err != nil {
				return err
			}
		}
		var room server.RoomView
		var err error
		if cmd == "align" {
			room, err = c.Align(ctx, rest[0])
		} else {
			room, err = c.Action(ctx, rest[0])
		}
		if err != nil {
			return err
		}
		printRemoteRoom(room)
		return nil
	case "undo", "redo":
		var err error
		if cmd == "undo" {
			_, err = c.Undo(ctx)
		} else {
			_, err = c.Redo(ctx)
		}
		if err != nil {
			return err
		}
		return printRemoteHistory(ctx, c)
	case "history":
		if len(rest) == 1 {
			i, err := strconv.Atoi(rest[0])
			if err != nil {
				return usageErr("%q is not a history index", rest[0])
			}
			if _, err := c.RestoreHistory(ctx, i); err != nil {
				return err
			}
		}
		return printRemoteHistory(ctx, c)
	case "save":
		if err := c.Save(ctx); err != nil {
			return err
		}
		fmt.Println("Saved")
		return nil
	case "export":
		if len(rest) != 2 {
			return usageErr("export requires png|pdf <file>")
		}
		f, err := os.Create(rest[1])
		if err != nil {
			return err
		}
		switch rest[0] {
		case "png":
			err = c.ExportPNG(ctx, f, false)
		case "pdf":
			err = c.ExportPDF(ctx, f, "My room")
		default:
			err = usageErr("unknown export format %q", rest[0])
		}
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
		fmt.Println("Wrote", rest[1])
		return nil
	}
	return usageErr("unknown remote command %q", cmd)
}

func printRemoteRoom(room server.RoomView) {
	fmt.Printf("Room %gx%g, floor %s, background %s\n", room.Bounds.Width, room.Bounds.Height, styleString(room.Floor), styleString(room.Background))
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tITEM\tLEFT\tTOP\tSIZE\tROTATION\tLAYER\t")
	for _, it := range room.Items {
		mark := ""
		if it.Selected {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%g\t%g\t%gx%g\t%g\t%d\t%s\n", it.ID, it.Label, it.X, it.Y, it.Width, it.Height, it.Rotation, it.Z, mark)
	}
	_ = tw.Flush()
}

func styleString(s server.StyleView) string {
	switch {
	case s.Preset != "":
		return s.Preset
	case s.Color != "":
		return s.Color
	}
	return s.Kind
}

func printRemoteHistory(ctx context.Context, c *client.Client) error {
	h, err := c.History(ctx)
	if err != nil {
		return err
	}
	for _, e := range h.Entries {
		mark := " "
		if e.Current {
			mark = ">"
		}
		fmt.Printf("%s %2d  %s  %s\n", mark, e.Index, e.TS.Local().Format("15:04:05"), e.Label)
	}
	return nil
}
