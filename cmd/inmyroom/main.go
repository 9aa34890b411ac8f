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
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"inmyroom/internal/config"
	applog "inmyroom/internal/log"
	"inmyroom/internal/version"
)

func usage() {
	fmt.Println("InMyRoom: room decorating")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  inmyroom version|-v|--version                 Show version")
	fmt.Println("  inmyroom init                                 Write the default config file")
	fmt.Println("  inmyroom catalog                              List furniture kinds")
	fmt.Println("  inmyroom show                                 Print the saved room")
	fmt.Println("  inmyroom place <kind> <x> <y>                 Place an item centred on x,y")
	fmt.Println("  inmyroom move <id> <x> <y>                    Move an item's top-left corner")
	fmt.Println("  inmyroom forward|backward <id>                Change an item's layer")
	fmt.Println("  inmyroom rotate <id> left|right               Rotate an item by 15 degrees")
	fmt.Println("  inmyroom resize <id> bigger|smaller           Resize an item by 10px")
	fmt.Println("  inmyroom align <id> <edge>                    left|center|right|top|middle|bottom")
	fmt.Println("  inmyroom nudge <id> <dx> <dy> [-fast]         Nudge an item by 1px (10px with -fast)")
	fmt.Println("  inmyroom delete <id>                          Remove an item")
	fmt.Println("  inmyroom floor <preset>|-image <file>         Set the floor")
	fmt.Println("  inmyroom background <#rrggbb|none>|-image <file>  Set the background")
	fmt.Println("  inmyroom reset                                Remove all furniture")
	fmt.Println("  inmyroom backups                              List earlier saves")
	fmt.Println("  inmyroom restore <n>                          Restore backup n (0 is newest)")
	fmt.Println("  inmyroom export png [-labels] [-clipboard] [-o file]")
	fmt.Println("  inmyroom export pdf [-title t] [-o file]")
	fmt.Println("  inmyroom export -preset web|print [-formats png,pdf]")
	fmt.Println("  inmyroom serve [-addr host:port]              Serve the HTTP API")
	fmt.Println("  inmyroom ui                                   Launch desktop UI (build with -tags fyne)")
	fmt.Println("  inmyroom remote <url> <show|place|action|align|undo|redo|history|save|export> ...")
}

func main() {
	// initialize structured logging using environment defaults
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("cli")

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) < 2 {
		usage()
		return
	}
	switch args[1] {
	case "version", "--version", "-v":
		fmt.Println("InMyRoom")
		fmt.Println(version.String())
		return
	case "help", "-h", "--help":
		usage()
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, args[1], args[2:]); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Println("Error:", err)
			usage()
			os.Exit(2)
		}
		l.Error("command failed", slog.String("cmd", args[1]), slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}

var errUsage = errors.New("invalid arguments")

func usageErr(format string, a ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, a...))
}

func run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "init":
		return cmdInit()
	case "catalog":
		return cmdCatalog()
	case "remote":
		return cmdRemote(ctx, args)
	}
	h, ok := roomCommands[cmd]
	if !ok {
		return usageErr("unknown command %q", cmd)
	}
	return withSession(ctx, func(s *session) error { return h(ctx, s, args) })
}

func cmdInit() error {
	path, err := config.ConfigPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		fmt.Println("Config already exists at", path)
		return nil
	}
	if err := config.SaveTo(path, config.Defaults(), ""); err != nil {
		return err
	}
	fmt.Println("Wrote", path)
	return nil
}
