// Package supervisor starts, tracks and stops the tool server processes of a
// gateway and keeps their launch descriptions in a JSON servers file.
//
// The servers file has the shape
//
//	{ "servers": { "<name>": {
//	    "command": "npx", "args": ["-y", "@modelcontextprotocol/server-everything"],
//	    "cwd": "/path", "env": {"KEY": "value"},
//	    "auto_start": true, "last_status": "running" } } }
//
// and outlives the gateway: last_status records what the operator asked for,
// while whether a process is actually alive is only known in memory. A fresh
// gateway therefore treats every server as stopped until it is started again,
// optionally through RestoreLastActive.
//
// Args, cwd and env values may contain text/template expressions with the sprig
// function library, e.g. {{ env "HOME" }} or {{ .ConfigDir }}. They are rendered
// at spawn time; the file keeps the templates.
package supervisor
