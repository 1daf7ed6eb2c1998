package barbot

const Terminator = '\n'

// Command is an ASCII code sent to the LED controller to signal process state
type Command string

const (
	CommandUnknown  Command = ""
	CommandWaiting  Command = "WAITING"
	CommandComplete Command = "COMPLETE"
	CommandFinished Command = "FINISHED"
	CommandAllOff   Command = "ALLOFF"

	CommandAdios      Command = "ADIOS"
	CommandLongIsland Command = "LONGISLAND"
	CommandPeachCrush Command = "PEACHCRUSH"
	CommandMidoriSour Command = "MIDORISOUR"
)

// RecipeCommands maps recipe names to the LED animation that is played while they are prepared
var RecipeCommands = map[string]Command{
	"AMF":                 CommandAdios,
	"Long Island Ice Tea": CommandLongIsland,
	"Peach Crush":         CommandPeachCrush,
	"Midori Sour":         CommandMidoriSour,
}

func (c Command) String() string {
	if c == CommandUnknown {
		return "Unknown"
	}
	return string(c)
}

// Bytes returns the Command as it is written to the wire, including the Terminator
func (c Command) Bytes() []byte {
	return append([]byte(c), Terminator)
}
