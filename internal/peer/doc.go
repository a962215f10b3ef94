// Package peer launches and stops the external bridging executable.
//
// The executable is started with no arguments, in the pipe directory, with its
// standard output and error redirected to files. The pipe location and names
// are also exported through the environment so a peer that understands them
// (such as ascpeer) does not depend on its working directory.
package peer
