package main

import (
	"flag"
	"log"
	"os"

	"github.com/noctlang/noct"
)

func main() {
	var (
		bytecodePath = flag.String("bytecode", "", "Path to the compiled bytecode image")
		entryPoint   = flag.String("entry", "main", "Name of the function to call")
		jitEnable    = flag.Bool("jit", true, "Enable the JIT backend")
	)
	flag.Parse()

	if *bytecodePath == "" {
		log.Fatal("Bytecode file not informed")
	}

	data, err := os.ReadFile(*bytecodePath)
	if err != nil {
		log.Fatalf("Can't read bytecode file: %s", err.Error())
	}

	cfg := noct.NewConfig()
	cfg.SetBool("jit.enable", *jitEnable)

	vm := noct.NewVM(cfg)
	defer vm.Close()

	env := vm.CreateThreadEnv()
	if _, err := vm.RegisterBytecode(env, *bytecodePath, data, map[string][]string{
		*entryPoint: {},
	}); err != nil {
		log.Fatalf("Can't register bytecode: %s", err.Error())
	}

	result, err := env.CallNamed(*entryPoint)
	if err != nil {
		log.Fatalf("Runtime error: %s", err.Error())
	}
	log.Printf("%s() = %s", *entryPoint, result.String())
}
