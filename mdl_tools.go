package main

import (
	"flag"
	"log"

	"github.com/mogaika/mdl_tools/config"
	"github.com/mogaika/mdl_tools/vfs"
	"github.com/mogaika/mdl_tools/web"
)

func main() {
	var addr, dir, profileFile, encoding string
	flag.StringVar(&addr, "i", ":8000", "Address of server")
	flag.StringVar(&dir, "dir", "", "Path to folder with .mdl files")
	flag.StringVar(&profileFile, "profile", "", "Export profile yaml used for uploads")
	flag.StringVar(&encoding, "encoding", "", "Name table encoding override")
	flag.Parse()

	if dir == "" {
		flag.PrintDefaults()
		return
	}

	profile := config.DefaultProfile()
	if profileFile != "" {
		var err error
		if profile, err = config.LoadProfile(profileFile); err != nil {
			log.Fatal(err)
		}
	}
	if encoding != "" {
		profile.Encoding = encoding
	}
	if err := profile.Apply(); err != nil {
		log.Fatal(err)
	}

	if err := web.StartServer(addr, vfs.NewDirectoryDriver(dir), profile); err != nil {
		log.Fatal(err)
	}
}
