// Command blockfs is an interactive shell over a single blockfs image. It
// is illustrative CLI glue, not part of the core filesystem: parsing a
// line into a verb and arguments and dispatching it to a FileSystem
// instance lives entirely in this file.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/dargueta/blockfs"
)

const diskImagePath = "vdisk.img"

func main() {
	shell := &shellState{}
	app := shell.buildApp()

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("blockfs> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			runLine(app, line)
		}
		fmt.Print("blockfs> ")
	}
}

// runLine tokenizes one input line and runs it through the cli.App,
// recovering from anything the dispatched command panics with so a bad
// line never takes down the whole shell.
func runLine(app *cli.App, line string) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("Error: %v\n", r)
		}
	}()

	tokens := strings.Fields(line)
	if err := app.Run(append([]string{"blockfs"}, tokens...)); err != nil {
		fmt.Printf("Error: %s\n", err.Error())
	}
}

// shellState holds the single FileSystem instance every command operates
// against, mirroring the single DiskManager/FileSystem pair the original
// CLI collaborator drives.
type shellState struct {
	fs *blockfs.FileSystem
}

func (s *shellState) requireMounted() bool {
	if s.fs == nil || !s.fs.Mounted() {
		fmt.Println("Not mounted.")
		return false
	}
	return true
}

func (s *shellState) buildApp() *cli.App {
	return &cli.App{
		Name:                   "blockfs",
		Usage:                  "interactive shell over a single blockfs image",
		UseShortOptionHandling: true,
		CommandNotFound: func(c *cli.Context, command string) {
			fmt.Printf("Error: unknown command %q\n", command)
		},
		Commands: []*cli.Command{
			{
				Name:   "mkfs",
				Action: s.cmdMkfs,
			},
			{
				Name:   "mount",
				Action: s.cmdMount,
			},
			{
				Name:   "create",
				Action: s.cmdCreate,
			},
			{
				Name:   "write",
				Action: s.cmdWrite,
			},
			{
				Name:   "cat",
				Action: s.cmdCat,
			},
			{
				Name:   "delete",
				Action: s.cmdDelete,
			},
			{
				Name:   "ls",
				Action: s.cmdLs,
			},
			{
				Name: "exit",
				Action: func(c *cli.Context) error {
					os.Exit(0)
					return nil
				},
			},
		},
	}
}

func (s *shellState) cmdMkfs(c *cli.Context) error {
	if err := blockfs.CreateImage(diskImagePath); err != nil {
		fmt.Printf("Error: %s\n", err.Error())
		return nil
	}
	if err := blockfs.Format(diskImagePath); err != nil {
		fmt.Printf("Error: %s\n", err.Error())
		return nil
	}
	fmt.Println("Disk formatted.")
	return nil
}

func (s *shellState) cmdMount(c *cli.Context) error {
	if s.fs != nil && s.fs.Mounted() {
		fmt.Println("Error: already mounted")
		return nil
	}

	fs, err := blockfs.Mount(diskImagePath)
	if err != nil {
		fmt.Printf("Error: %s\n", err.Error())
		return nil
	}

	s.fs = fs
	fmt.Println("Filesystem mounted.")
	return nil
}

func (s *shellState) cmdCreate(c *cli.Context) error {
	if !s.requireMounted() {
		return nil
	}
	name := c.Args().First()

	ok, err := s.fs.Create(name)
	if err != nil {
		fmt.Printf("Error: %s\n", err.Error())
		return nil
	}
	if !ok {
		fmt.Println("Create failed.")
		return nil
	}
	fmt.Println("File created.")
	return nil
}

func (s *shellState) cmdWrite(c *cli.Context) error {
	if !s.requireMounted() {
		return nil
	}

	args := c.Args().Slice()
	if len(args) < 2 {
		fmt.Println("Error: usage: write NAME DATA...")
		return nil
	}
	name := args[0]
	data := []byte(strings.Join(args[1:], " "))

	fd, err := s.fs.OpenFile(name)
	if err != nil {
		fmt.Printf("Error: %s\n", err.Error())
		return nil
	}
	if fd < 0 {
		fmt.Println("Error: open failed")
		return nil
	}
	defer s.fs.CloseFile(fd)

	written, err := s.fs.WriteFile(fd, data)
	if err != nil {
		fmt.Printf("Error: %s\n", err.Error())
		return nil
	}
	fmt.Printf("Wrote %d bytes.\n", written)
	return nil
}

func (s *shellState) cmdCat(c *cli.Context) error {
	if !s.requireMounted() {
		return nil
	}
	name := c.Args().First()

	fd, err := s.fs.OpenFile(name)
	if err != nil {
		fmt.Printf("Error: %s\n", err.Error())
		return nil
	}
	if fd < 0 {
		fmt.Println("Error: open failed")
		return nil
	}
	defer s.fs.CloseFile(fd)

	chunk := make([]byte, 512)
	for {
		n, err := s.fs.ReadFile(fd, chunk)
		if err != nil {
			fmt.Printf("Error: %s\n", err.Error())
			return nil
		}
		if n <= 0 {
			break
		}
		os.Stdout.Write(chunk[:n])
	}
	fmt.Println()
	return nil
}

func (s *shellState) cmdDelete(c *cli.Context) error {
	if !s.requireMounted() {
		return nil
	}
	name := c.Args().First()

	ok, err := s.fs.Delete(name)
	if err != nil {
		fmt.Printf("Error: %s\n", err.Error())
		return nil
	}
	if !ok {
		fmt.Println("Delete failed.")
		return nil
	}
	fmt.Println("Deleted.")
	return nil
}

func (s *shellState) cmdLs(c *cli.Context) error {
	if !s.requireMounted() {
		return nil
	}

	names, err := s.fs.List()
	if err != nil {
		fmt.Printf("Error: %s\n", err.Error())
		return nil
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}
