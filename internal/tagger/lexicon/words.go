package lexicon

import "github.com/Adithya-Monish-Kumar-K/compositional-split/internal/tagger"

// closedClass holds function words with a single unambiguous tag.
var closedClass = map[string]string{
	"a": tagger.DET, "an": tagger.DET, "the": tagger.DET, "this": tagger.DET,
	"that": tagger.DET, "these": tagger.DET, "those": tagger.DET, "each": tagger.DET,
	"every": tagger.DET, "some": tagger.DET, "any": tagger.DET, "no": tagger.DET,
	"all": tagger.DET, "both": tagger.DET, "another": tagger.DET, "its": tagger.PRON,
	"their": tagger.PRON, "his": tagger.PRON, "her": tagger.PRON, "it": tagger.PRON,
	"they": tagger.PRON, "which": tagger.PRON, "who": tagger.PRON, "one": tagger.NUM,
	"two": tagger.NUM, "three": tagger.NUM, "four": tagger.NUM, "five": tagger.NUM,
	"six": tagger.NUM, "seven": tagger.NUM, "eight": tagger.NUM, "nine": tagger.NUM,
	"ten": tagger.NUM, "of": tagger.ADP, "with": tagger.ADP, "without": tagger.ADP,
	"in": tagger.ADP, "on": tagger.ADP, "at": tagger.ADP, "by": tagger.ADP,
	"for": tagger.ADP, "from": tagger.ADP, "to": tagger.ADP, "into": tagger.ADP,
	"onto": tagger.ADP, "under": tagger.ADP, "over": tagger.ADP, "above": tagger.ADP,
	"below": tagger.ADP, "between": tagger.ADP, "behind": tagger.ADP, "around": tagger.ADP,
	"across": tagger.ADP, "along": tagger.ADP, "near": tagger.ADP, "like": tagger.ADP,
	"and": tagger.CCONJ, "or": tagger.CCONJ, "but": tagger.CCONJ, "nor": tagger.CCONJ,
	"while": tagger.SCONJ, "because": tagger.SCONJ, "if": tagger.SCONJ, "although": tagger.SCONJ,
	"is": tagger.AUX, "are": tagger.AUX, "was": tagger.AUX, "were": tagger.AUX,
	"be": tagger.AUX, "been": tagger.AUX, "am": tagger.AUX, "can": tagger.AUX,
	"could": tagger.AUX, "will": tagger.AUX, "would": tagger.AUX, "may": tagger.AUX,
	"not": tagger.PART, "'s": tagger.PART, "very": tagger.ADV, "quite": tagger.ADV,
	"slightly": tagger.ADV, "also": tagger.ADV, "too": tagger.ADV, "so": tagger.ADV,
	"rather": tagger.ADV, "really": tagger.ADV, "mostly": tagger.ADV, "fully": tagger.ADV,
}

// adjectives are open-class words that are adjectives in caption text.
var adjectives = wordSet(
	// colors
	"black", "white", "red", "blue", "green", "yellow", "orange", "purple", "pink",
	"brown", "gray", "grey", "beige", "tan", "silver", "golden", "gold", "navy",
	"maroon", "teal", "cream", "ivory", "dark", "light", "pale", "bright", "colorful",
	"transparent", "clear", "translucent",
	// shapes
	"round", "square", "rectangular", "circular", "oval", "triangular", "curved",
	"straight", "flat", "angular", "cylindrical", "spherical", "hexagonal", "octagonal",
	"tapered", "rounded", "slanted", "arched", "concave", "convex", "boxy", "bent",
	// size and proportion
	"big", "small", "large", "little", "tiny", "huge", "tall", "short", "long", "wide",
	"narrow", "thin", "thick", "high", "low", "deep", "shallow", "heavy", "slim",
	"broad", "compact", "oversized", "medium",
	// material and texture
	"wooden", "metal", "metallic", "plastic", "leather", "fabric", "glass", "soft",
	"hard", "smooth", "rough", "padded", "upholstered", "cushioned", "woven", "shiny",
	"glossy", "matte", "striped", "patterned", "solid", "hollow",
	// general
	"modern", "simple", "old", "new", "comfortable", "elegant", "plain", "fancy",
	"classic", "traditional", "contemporary", "ergonomic", "sturdy", "open", "closed",
	"empty", "single", "double", "main", "same", "different", "other", "several",
	"many", "few", "top", "bottom", "front", "rear", "left", "right", "upper",
	"lower", "middle", "central", "outer", "inner", "vertical", "horizontal",
	"diagonal", "parallel", "adjustable", "folding", "swivel", "decorative", "nice",
	"good", "pretty", "ugly", "strange", "unusual", "regular", "normal", "standard",
	"basic", "minimalist", "vintage", "rustic", "industrial", "extra",
)

// nouns are open-class words that are nouns in caption text.
var nouns = wordSet(
	"chair", "table", "desk", "sofa", "couch", "bench", "stool", "bed", "lamp",
	"cabinet", "shelf", "bookshelf", "dresser", "drawer", "seat", "back", "backrest",
	"leg", "arm", "armrest", "cushion", "pillow", "frame", "base", "top", "surface",
	"side", "edge", "corner", "wheel", "caster", "pole", "post", "support", "rail",
	"slat", "bar", "rod", "stand", "pedestal", "panel", "board", "plank", "tabletop",
	"headrest", "footrest", "wood", "metal", "plastic", "leather", "fabric", "glass",
	"material", "color", "colour", "shape", "style", "design", "pattern", "stripe",
	"hole", "gap", "space", "piece", "part", "section", "layer", "row", "set",
	"object", "thing", "item", "model", "furniture", "room", "floor", "wall",
	"ground", "bottom", "front", "rear", "middle", "center", "centre", "end", "tip",
	"circle", "square", "rectangle", "triangle", "cylinder", "sphere", "cube",
	"curve", "line", "angle", "handle", "knob", "door", "box", "container", "basket",
	"cloth", "cover", "mesh", "net", "spring", "screw", "bolt", "joint", "hinge",
	"office", "kitchen", "dining", "bar", "lounge", "recliner", "rocker", "ottoman",
	"tripod",
)

// verbs are open-class words that are verbs in caption text.
var verbs = wordSet(
	"has", "have", "had", "looks", "look", "sits", "sit", "stands", "holds", "hold",
	"supports", "connects", "connect", "attached", "made", "make", "comes", "come",
	"appears", "appear", "resembles", "resemble", "contains", "contain", "features",
	"extends", "extend", "goes", "go", "reclines", "rotates", "rests", "rest",
	"forms", "form", "covers", "curves", "slopes", "joined", "mounted", "placed",
	"shaped", "used", "designed", "seems", "seem", "does", "do", "did",
)

// ambiguousAdjNoun lists words that are nouns unless they modify a following
// noun ("a square table" versus "a square").
var ambiguousAdjNoun = wordSet(
	"square", "top", "bottom", "front", "rear", "metal", "plastic", "leather",
	"fabric", "glass", "wood", "office", "kitchen", "dining", "bar", "gold",
	"silver", "cream", "orange", "middle", "back", "side",
)

var adjectiveSuffixes = []string{
	"ous", "ful", "ive", "able", "ible", "al", "ish", "ic", "less", "ular", "ary",
}

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
