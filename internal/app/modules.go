package app

import (
	"github.com/vk/modelmirror/internal/registry"
	"github.com/vk/modelmirror/modules/envvars"
	"github.com/vk/modelmirror/modules/httpclient"
	"github.com/vk/modelmirror/modules/printer"
	"github.com/vk/modelmirror/modules/secrets"
	"github.com/vk/modelmirror/modules/socketio"
)

// coreModules is the definitive list of all modules that are compiled into
// the mirror binary.
var coreModules = []registry.Module{
	&envvars.Module{},
	&httpclient.Module{},
	&printer.Module{},
	&secrets.Module{},
	&socketio.Module{},
}
