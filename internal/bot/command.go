package bot

import (
	"fmt"
	"strings"
)

// CommandKind is the closed set of button actions. Callback payloads are
// parsed into it once, at the transport boundary, and matched exhaustively.
type CommandKind int

const (
	KindUnknown CommandKind = iota

	// Catalog browsing
	KindSelectType  // type:<song type>
	KindViewAll     // action:all
	KindRefine      // action:filter
	KindSelectTempo // tempo:<song tempo>
	KindToggleGenre // genre:<title>
	KindGenreDone   // genre:done
	KindNavPrev     // nav:prev
	KindNavNext     // nav:next
	KindNavLike     // nav:like
	KindNavType     // nav:type
	KindNavTempo    // nav:tempo
	KindNavGenre    // nav:genre

	// Wishlist browsing
	KindWishPrev   // wish:prev
	KindWishNext   // wish:next
	KindWishRemove // wish:remove

	KindDownloadLyrics // download:lyrics
	KindMainMenu       // to_main

	// Admin wizard
	KindWizardType  // wtype:<song type>
	KindWizardTempo // wtempo:<song tempo>
	KindSkipMedia   // skip_media
	KindEditField   // edit:<field>
	KindEditDone    // edit:done
	KindDeleteYes   // del:confirm
	KindDeleteNo    // del:cancel

	// Admin history viewer
	KindHistPrev   // hist:prev
	KindHistNext   // hist:next
	KindHistExport // hist:export
)

type Command struct {
	Kind CommandKind
	Arg  string
}

// ParseCommand decodes a callback payload into a typed command. Unknown
// payloads are an error, not a silent no-op, so stale buttons surface in
// the logs.
func ParseCommand(data string) (Command, error) {
	switch data {
	case "to_main":
		return Command{Kind: KindMainMenu}, nil
	case "skip_media":
		return Command{Kind: KindSkipMedia}, nil
	case "download:lyrics":
		return Command{Kind: KindDownloadLyrics}, nil
	}

	prefix, arg, ok := strings.Cut(data, ":")
	if !ok {
		return Command{}, fmt.Errorf("unrecognized callback payload %q", data)
	}

	switch prefix {
	case "type":
		return Command{Kind: KindSelectType, Arg: arg}, nil
	case "wtype":
		return Command{Kind: KindWizardType, Arg: arg}, nil
	case "tempo":
		return Command{Kind: KindSelectTempo, Arg: arg}, nil
	case "wtempo":
		return Command{Kind: KindWizardTempo, Arg: arg}, nil
	case "action":
		switch arg {
		case "all":
			return Command{Kind: KindViewAll}, nil
		case "filter":
			return Command{Kind: KindRefine}, nil
		}
	case "genre":
		if arg == "done" {
			return Command{Kind: KindGenreDone}, nil
		}
		return Command{Kind: KindToggleGenre, Arg: arg}, nil
	case "nav":
		switch arg {
		case "prev":
			return Command{Kind: KindNavPrev}, nil
		case "next":
			return Command{Kind: KindNavNext}, nil
		case "like":
			return Command{Kind: KindNavLike}, nil
		case "type":
			return Command{Kind: KindNavType}, nil
		case "tempo":
			return Command{Kind: KindNavTempo}, nil
		case "genre":
			return Command{Kind: KindNavGenre}, nil
		}
	case "wish":
		switch arg {
		case "prev":
			return Command{Kind: KindWishPrev}, nil
		case "next":
			return Command{Kind: KindWishNext}, nil
		case "remove":
			return Command{Kind: KindWishRemove}, nil
		}
	case "edit":
		if arg == "done" {
			return Command{Kind: KindEditDone}, nil
		}
		return Command{Kind: KindEditField, Arg: arg}, nil
	case "del":
		switch arg {
		case "confirm":
			return Command{Kind: KindDeleteYes}, nil
		case "cancel":
			return Command{Kind: KindDeleteNo}, nil
		}
	case "hist":
		switch arg {
		case "prev":
			return Command{Kind: KindHistPrev}, nil
		case "next":
			return Command{Kind: KindHistNext}, nil
		case "export":
			return Command{Kind: KindHistExport}, nil
		}
	}

	return Command{}, fmt.Errorf("unrecognized callback payload %q", data)
}
