// Copyright (c) 2026 Verso Labs
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at versolabs.io/bsl11.
//
// Change Date: 2029-8-1
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/versodb/verso/backend/ldb"
	"github.com/versodb/verso/common"
	"github.com/versodb/verso/database/store"
	"github.com/versodb/verso/database/trie"
	trieio "github.com/versodb/verso/database/trie/io"
)

var ExportCmd = cli.Command{
	Action:    doExport,
	Name:      "export",
	Usage:     "write a snapshot of a store's current version to a file",
	ArgsUsage: "<db directory> <snapshot file>",
	Flags: []cli.Flag{
		&codecFlag,
	},
}

var ImportCmd = cli.Command{
	Action:    doImport,
	Name:      "import",
	Usage:     "restore a store from a snapshot file",
	ArgsUsage: "<snapshot file> <db directory>",
	Flags: []cli.Flag{
		&codecFlag,
	},
}

var codecFlag = cli.StringFlag{
	Name:  "codec",
	Usage: "the value encoding of the store: string, bytes, uint64, or uint256",
	Value: "string",
}

func codecByName(name string) (common.ValueCodec, error) {
	switch name {
	case "string":
		return common.StringCodec{}, nil
	case "bytes":
		return common.BytesCodec{}, nil
	case "uint64":
		return common.Uint64Codec{}, nil
	case "uint256":
		return common.Uint256Codec{}, nil
	}
	return nil, fmt.Errorf("unknown codec: %s", name)
}

func doExport(context *cli.Context) error {
	if context.Args().Len() != 2 {
		return fmt.Errorf("expected a db directory and a snapshot file as arguments")
	}
	codec, err := codecByName(context.String(codecFlag.Name))
	if err != nil {
		return err
	}

	db, err := ldb.Open(context.Args().Get(0))
	if err != nil {
		return err
	}
	st, err := store.NewStore(store.Config{Backend: db, Codec: codec})
	if err != nil {
		return errors.Join(err, db.Close())
	}
	version, revision := st.Snapshot()

	file, err := os.Create(context.Args().Get(1))
	if err != nil {
		return errors.Join(err, st.Close())
	}
	buffer := bufio.NewWriter(file)
	err = errors.Join(
		trieio.Export(buffer, version, codec),
		buffer.Flush(),
		file.Close(),
		st.Close(),
	)
	if err == nil {
		fmt.Printf("Exported revision %d to %s\n", revision, context.Args().Get(1))
	}
	return err
}

func doImport(context *cli.Context) error {
	if context.Args().Len() != 2 {
		return fmt.Errorf("expected a snapshot file and a db directory as arguments")
	}
	codec, err := codecByName(context.String(codecFlag.Name))
	if err != nil {
		return err
	}

	file, err := os.Open(context.Args().Get(0))
	if err != nil {
		return err
	}
	version, err := trieio.Import(bufio.NewReader(file), codec)
	if err = errors.Join(err, file.Close()); err != nil {
		return err
	}

	db, err := ldb.Open(context.Args().Get(1))
	if err != nil {
		return err
	}
	count := 0
	err = trie.Walk(version, func(key string, holder any) error {
		value, err := codec.Encode(holder)
		if err != nil {
			return err
		}
		count++
		return db.Put([]byte(key), value)
	})
	if err = errors.Join(err, db.Close()); err != nil {
		return err
	}
	fmt.Printf("Imported %d keys into %s\n", count, context.Args().Get(1))
	return nil
}
